package registry

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/transport/mqtt"
)

// Registrar announces a device with a retained meta message. The will
// clears it when the device drops off.
type Registrar struct {
	Queue *mqtt.Queue
	Info  DeviceInfo

	metaJSON []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info DeviceInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := topicPrefix + mqtt.DeviceTopic(info.Ref.Name(), mqtt.TopicMeta)
	opts.SetBinaryWill(metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("qnn:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    mqtt.NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*mqtt.Queue) { r.onConnected() }
	return r, nil
}

// Name implements framework.Named.
func (r *Registrar) Name() string {
	return "registrar " + r.Info.Ref.Name()
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	if r.Queue.Client.IsConnected() {
		clearCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := mqtt.Wait(clearCtx, r.Queue.PubWith(r.metaTopic(), nil, 1, true)); err != nil {
			glog.Warningf("clear meta of %s: %v", r.Info.Ref.Name(), err)
		}
		cancel()
	}
	r.Queue.Close()
	return nil
}

func (r *Registrar) metaTopic() string {
	return mqtt.DeviceTopic(r.Info.Ref.Name(), mqtt.TopicMeta)
}

func (r *Registrar) onConnected() {
	glog.Infof("announcing device %s", r.Info.Ref.Name())
	r.Queue.PubWith(r.metaTopic(), r.metaJSON, 1, true)
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover collects announced devices until timeout.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) ([]DeviceInfo, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.ConnectWait(ctx); err != nil {
		return nil, err
	}
	defer q.Close()
	resCh := make(chan DeviceInfo, 1)
	sub := q.Sub("+/+/"+mqtt.TopicMeta, func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	})
	defer sub.Close()

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	return collect(ctx, resCh, time.After(timeout))
}

func collect(ctx context.Context, resCh <-chan DeviceInfo, timeout <-chan time.Time) ([]DeviceInfo, error) {
	var res []DeviceInfo
	seen := make(map[DeviceRef]int)
	for {
		select {
		case info := <-resCh:
			if i, ok := seen[info.Ref]; ok {
				res[i] = info
				continue
			}
			seen[info.Ref] = len(res)
			res = append(res, info)
		case <-timeout:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// ParseMeta decodes a meta message. Cleared or malformed
// announcements are skipped.
func ParseMeta(topic string, payload []byte) (DeviceInfo, bool) {
	items := strings.Split(topic, "/")
	if len(payload) == 0 || len(items) != 3 || items[2] != mqtt.TopicMeta {
		return DeviceInfo{}, false
	}
	info := DeviceInfo{Ref: DeviceRef{Type: items[0], ID: items[1]}}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("invalid meta of %s: %v", info.Ref.Name(), err)
		return DeviceInfo{}, false
	}
	return info, true
}
