// Command timedex is a CLI interface to a time-chunked link index.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/bobg/subcmd"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/index"
	"github.com/graphtide/timedex/store"
	_ "github.com/graphtide/timedex/store/logging"
	_ "github.com/graphtide/timedex/store/lru"
	_ "github.com/graphtide/timedex/store/mem"
	_ "github.com/graphtide/timedex/store/metrics"
	_ "github.com/graphtide/timedex/store/pg"
	_ "github.com/graphtide/timedex/store/sqlite3"
)

type maincmd struct {
	s  timedex.Store
	ix *index.Index
}

func main() {
	configPath := flag.String("config", "timedexconf.json", "path to config file")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("Config value not set")
	}

	conf, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("Reading config file %s: %s", *configPath, err)
	}

	typ, ok := conf["type"].(string)
	if !ok {
		log.Fatalf("Config file %s missing `type` parameter", *configPath)
	}

	ctx := context.Background()

	s, err := store.Create(ctx, typ, conf)
	if err != nil {
		log.Fatalf("Creating %s-type store: %s", typ, err)
	}

	cfg, name, err := datasetConfig(conf)
	if err != nil {
		log.Fatalf("Reading dataset parameters: %s", err)
	}

	ix, err := index.New(name, s, cfg, timedex.SystemClock())
	if err != nil {
		log.Fatalf("Creating index: %s", err)
	}

	err = subcmd.Run(ctx, maincmd{s: s, ix: ix}, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func (c maincmd) Subcmds() map[string]subcmd.Subcmd {
	return map[string]subcmd.Subcmd{
		"init-genesis": fscmd(c.initGenesis),
		"add":          fscmd(c.add),
		"current":      fscmd(c.current),
		"latest":       fscmd(c.latest),
		"links":        fscmd(c.links),
		"between":      fscmd(c.between),
		"chunks":       fscmd(c.chunks),
		"sync":         fscmd(c.sync),
	}
}

// fscmd adapts a handler that parses its own flags to subcmd.Subcmd,
// supplying a fresh FlagSet and the raw args as the old func-style
// subcmd API did.
func fscmd(f func(context.Context, *flag.FlagSet, []string) error) subcmd.Subcmd {
	return subcmd.Subcmd{
		F: func(ctx context.Context, args []string) error {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			return f(ctx, fs, args)
		},
	}
}

func readConfig(path string) (map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var conf map[string]interface{}
	err = json.NewDecoder(f).Decode(&conf)
	return conf, err
}

// datasetConfig extracts the dataset parameters and index name from the
// decoded config map, falling back to the stock defaults.
func datasetConfig(conf map[string]interface{}) (timedex.Config, string, error) {
	cfg := timedex.DefaultConfig()
	if s, ok := conf["interval"].(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return cfg, "", err
		}
		cfg.Interval = d
	}
	if n, ok := conf["direct_limit"].(float64); ok {
		cfg.DirectLimit = int(n)
	}
	if n, ok := conf["spam_limit"].(float64); ok {
		cfg.SpamLimit = int(n)
	}
	name := "default"
	if s, ok := conf["index"].(string); ok {
		name = s
	}
	return cfg, name, cfg.Validate()
}

var layouts = []string{
	time.RFC3339Nano, time.RFC3339, time.ANSIC, time.UnixDate,
}

func parsetime(s string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil { // sic
			return t, nil
		}
	}
	return time.Time{}, errTimeParse
}
