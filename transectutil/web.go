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

package transectutil

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// WebAddress is the address the web front end listens on.
const WebAddress = "localhost:7272"

// setConfigHandler reads the configuration file given in the "config"
// query parameter and responds with the resulting configuration.
func setConfigHandler(w http.ResponseWriter, r *http.Request) {
	configFile := r.FormValue("config")
	if configFile == "" {
		http.Error(w, "transectutil: missing config parameter", http.StatusBadRequest)
		return
	}
	Cfg.Set("config", configFile)
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StartWebServer starts a web front end for configuring and running
// the commands and opens it in a browser.
func StartWebServer() {
	if err := setConfig(); err != nil {
		logrus.WithError(err).Warn("transectutil: ignoring configuration file")
	}
	http.HandleFunc("/setConfig", setConfigHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, runCmd, batchCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	output := template.Must(template.New("").Parse(webTemplate))
	server := gobra.Server{Root: Root, ServerAddress: WebAddress, AllowCORS: false, HTML: output}
	logrus.WithField("address", WebAddress).Info("transectutil: starting web server")
	if err := open.Run("http://" + WebAddress); err != nil {
		fmt.Printf("If not opened automatically, please visit http://%s\n", WebAddress)
	}
	server.Start()
}

const webTemplate = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>transect</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
	</style>
</head>
<body>
<div class="container">
	<h1>transect</h1>
	<p>Configure the road network and transect settings below.</p>
	<div>
		{{.}}
	</div>
</div>
<script>
let allFlags = [...document.querySelectorAll('[data-name]')];
let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("http://` + WebAddress + `/setConfig?config="+encodeURIComponent(configInput.value))
		.then(res => {
			if (res.status !== 200) {
				configInput.classList.add("red-border");
				return;
			}
			configInput.classList.remove("red-border");
			res.json().then(data => {
				for (let key in data)
					for (let f of allFlags)
						if (f.dataset.name == key) {
							let input = f.children[0];
							let v = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
							if (input.value != v) {
								input.value = v;
								input.classList.add("green-border");
							}
						}
			});
		})
		.catch(err => console.log("Error fetching /setConfig", err));
});
</script>
</body>
</html>`
