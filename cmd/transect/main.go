/*
Copyright © 2018 the transect authors.
This file is part of transect.

transect is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

transect is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with transect.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command transect is a command-line interface for creating transects
// across road networks.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/transect/transectutil"
)

func main() {
	if len(os.Args) == 1 { // If no command was supplied, start the GUI server.
		transectutil.StartWebServer()
		return
	}

	if err := transectutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
