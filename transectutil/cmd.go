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
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/transect"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the transect tool.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the road network: a shapefile or
              GeoJSON file of single-part lines, optionally inside a zip
              archive. It can be a local path, an http(s) URL, or a blob
              storage URL (gs://, s3://, or file://) and can include
              environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TransectWidth",
			usage: `
              TransectWidth is the full length of each transect, in the
              units of the input spatial reference.`,
			shorthand:  "w",
			defaultVal: transect.DefaultWidth,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile determines where the transects are written:
              "_transects" is added to its base name. The extension selects
              the format (.shp or .geojson). If it is empty, the name is
              derived from InputFile. Blob storage URLs are allowed.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile, if specified, is the location of an image (for
              example a .png file) showing the roads and transects.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance is the distance within which a midpoint is
              considered to lie on a road segment.`,
			defaultVal: transect.DefaultTolerance,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "ScopeToFeature",
			usage: `
              ScopeToFeature specifies that a midpoint can only be matched
              to segments of its own road. By default all segments of all
              roads are searched in input order, and the first one
              containing the midpoint is used.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "ForwardJunctions",
			usage: `
              ForwardJunctions specifies that a midpoint falling on a
              vertex is matched to the segment starting there rather than
              the segment ending there.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "LegacySlope",
			usage: `
              LegacySlope specifies that segment directions are calculated
              as atan(rise/(run+1e-19)) rather than atan2(rise, run). This
              reverses the endpoint order of transects crossing segments
              that run right-to-left.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Indexed",
			usage: `
              Indexed specifies whether to use a spatial index to search
              for road segments.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile, if specified, is a file that log messages are
              written to in addition to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to show:
              debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TRANSECT")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(batchCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := os.ExpandEnv(Cfg.GetString("config")); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("transectutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "transect",
	Short: "Create transects across a road network.",
	Long: `transect creates one straight line of a fixed width through the
midpoint of each road in a road network, perpendicular to the road.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'TRANSECT_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of transect.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "transect v%s\n", transect.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd creates transects for a single road network.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create transects for a road network.",
	Long: `run creates transects for the roads in InputFile and prints the
location of the output dataset. If no transects can be created, no output
is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd.OutOrStderr(), Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		defer closeLog()
		o, err := checkOptions(Cfg)
		if err != nil {
			return err
		}
		out, err := Run(context.Background(), Job{
			InputFile:  Cfg.GetString("InputFile"),
			OutputFile: Cfg.GetString("OutputFile"),
			PlotFile:   Cfg.GetString("PlotFile"),
		}, o, log)
		if err != nil {
			return err
		}
		printOutput(cmd, out)
		return nil
	},
	DisableAutoGenTag: true,
}

// batchCmd runs the jobs in a batch file.
var batchCmd = &cobra.Command{
	Use:   "batch jobs.toml",
	Short: "Create transects for several road networks.",
	Long: `batch runs the jobs listed in a TOML file, one after another, and
prints the location of the output dataset of each. Each job is specified in
a [[Job]] table with InputFile, and optionally OutputFile, TransectWidth, and
PlotFile fields. Other settings are taken from the configuration. For example:

  [[Job]]
  InputFile = "roads.shp"
  TransectWidth = 30.0

  [[Job]]
  InputFile = "gs://bucket/rivers.shp"
  OutputFile = "gs://bucket/out/rivers.shp"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd.OutOrStderr(), Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		defer closeLog()
		o, err := checkOptions(Cfg)
		if err != nil {
			return err
		}
		f, err := os.Open(os.ExpandEnv(args[0]))
		if err != nil {
			return fmt.Errorf("transectutil: opening batch file: %v", err)
		}
		defer f.Close()
		outputs, err := Batch(context.Background(), f, o, log)
		if err != nil {
			return err
		}
		for _, out := range outputs {
			printOutput(cmd, out)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// NoOutput is printed instead of an output location when no
// transects were created.
const NoOutput = "no transects were created; no output dataset was written"

func printOutput(cmd *cobra.Command, out string) {
	if out == "" {
		out = NoOutput
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
}
