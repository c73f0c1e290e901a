package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/config"
	"github.com/robotalks/qnn.go/pkg/framework"
	"github.com/robotalks/qnn.go/pkg/httpapi"
	"github.com/robotalks/qnn.go/pkg/transport"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.MustLoad()
	m, err := conf.LoadModel()
	if err != nil {
		glog.Exitf("load model: %v", err)
	}
	p, err := conf.NewPipeline(m)
	if err != nil {
		glog.Exitf("create pipeline: %v", err)
	}
	glog.Infof("model %s loaded: %d-%d-%d, %d params, accumulator %d bits, scale %d",
		conf.ModelPath, m.InputDim(), m.HiddenDim(), m.OutputDim(), m.NumParams(), p.AccumulatorWidth(), p.Scale())

	srv, err := conf.NewServer(p)
	if err != nil {
		glog.Exitf("create link server: %v", err)
	}
	runner := framework.NewRunner().HandleSignals()
	if srv.URL.Scheme != transport.SchemeWebsocket {
		runner.Go(srv)
	} else if conf.HTTPAddr == "" {
		glog.Exitf("%v, -http required", transport.ErrServedByHTTP)
	}
	if conf.HTTPAddr != "" {
		runner.Go(httpapi.New(conf.HTTPAddr, srv.Handler))
	}
	reg, err := conf.NewRegistrar(p)
	if err != nil {
		glog.Exit(err)
	}
	if reg != nil {
		runner.Go(reg)
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
