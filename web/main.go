package main

import (
	"flag"

	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
	"github.com/df07/go-sphere-pathtracer/web/server"
	"github.com/golang/glog"
)

var (
	port      = flag.Int("port", 8080, "Port to serve on")
	scenesDir = flag.String("scenes_dir", "", "Directory of scene files (default: scenes or ../scenes)")
)

func main() {
	flag.Parse()
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	if *scenesDir == "" {
		*scenesDir = scene.FindScenesDir()
	}
	glog.Infof("Flags: port=%d scenes_dir=%q", *port, *scenesDir)

	if err := renderer.RegisterViews(); err != nil {
		glog.Fatalf("Error while registering renderer views: %v", err)
	}

	webServer := server.NewServer(*port, *scenesDir)

	glog.Infof("Sphere Path Tracer Web Server")
	glog.Infof("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		glog.Fatalf("Error starting server: %v", err)
	}
}
