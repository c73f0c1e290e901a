package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/registry"
	"github.com/robotalks/qnn.go/pkg/tensor"
	"github.com/robotalks/qnn.go/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/qnn/"
)

func init() {
	if val := os.Getenv("QNN_REGISTRY_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("+/+/+", mqtt.Handler(func(topic string, payload []byte) {
		switch topic[strings.LastIndex(topic, "/")+1:] {
		case mqtt.TopicMeta:
			if len(payload) == 0 {
				log.Printf("%s: cleared", topic)
				return
			}
			if info, ok := registry.ParseMeta(topic, payload); ok {
				topo := info.Meta.Topology
				log.Printf("%s: %d-%d-%d scale=%d signaling=%s link=%s", topic,
					topo.InputDim, topo.HiddenDim, topo.OutputDim, topo.Scale, topo.Signaling, info.Meta.Link)
				return
			}
			log.Printf("%s: bad meta: %s", topic, string(payload))
		case mqtt.TopicStatus:
			status, err := link.ParseStatus(string(payload))
			if err != nil {
				log.Printf("%s: bad status: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, status)
		case mqtt.TopicRequest:
			log.Printf("%s: %v", topic, tensor.Vec8FromBytes(payload))
		case mqtt.TopicResponse:
			if len(payload) == 0 {
				log.Printf("%s: (empty)", topic)
				return
			}
			log.Printf("%s: %v", topic, payload)
		}
	}))
	<-(chan struct{})(nil)
}
