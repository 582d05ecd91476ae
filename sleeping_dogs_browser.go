package main

import (
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/JonYeb/sleeping_dogs_browser/config"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"
	"github.com/JonYeb/sleeping_dogs_browser/web"

	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/mat"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/mdl"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/skel"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/strm"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
)

func main() {
	var addr, dir, cfg, pprofAddr string
	var checkOnly bool
	flag.StringVar(&addr, "i", "", "Address of server, overrides settings file")
	flag.StringVar(&dir, "dir", "", "Path to folder with extracted perm.bin+temp.bin pairs")
	flag.StringVar(&cfg, "cfg", "sleeping_dogs_browser.yaml", "Path to yaml settings file")
	flag.StringVar(&pprofAddr, "pprof", "", "Address of pprof server, empty disables it")
	flag.BoolVar(&checkOnly, "parsecheck", false, "Audit every container for uid conflicts and broken chunks, then exit")
	flag.Parse()

	if err := config.LoadSettings(cfg); err != nil {
		log.Fatal(err)
	}
	settings := config.GetSettings()
	if addr == "" {
		addr = settings.ListenAddr
	}
	if dir == "" {
		dir = settings.GameDir
	}
	if dir == "" {
		flag.PrintDefaults()
		return
	}

	if checkOnly {
		parseCheck(vfs.NewDirectoryDriver(dir))
		return
	}

	if pprofAddr != "" {
		go http.ListenAndServe(pprofAddr, http.DefaultServeMux)
	}

	if err := web.StartServer(addr, vfs.NewDirectoryDriver(dir), "web"); err != nil {
		log.Fatal(err)
	}
}
