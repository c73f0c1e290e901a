package sh

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"
	json "github.com/goccy/go-json"

	"github.com/robotalks/qnn.go/pkg/config"
	"github.com/robotalks/qnn.go/pkg/registry"
	"github.com/robotalks/qnn.go/pkg/transport"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *config.HostConfig
	Conn   *DeviceConn
}

// DeviceConn is a running link connection to a device.
type DeviceConn struct {
	Ctx    context.Context
	Cancel func()
	Info   registry.DeviceInfo
	Conn   *transport.Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&InfoCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.HostConfig) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info registry.DeviceInfo) string {
	var w bytes.Buffer
	topo := info.Meta.Topology
	fmt.Fprintf(&w, "%s [%d-%d-%d]", info.Ref.Name(), topo.InputDim, topo.HiddenDim, topo.OutputDim)
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// PrintJSON prints v as JSON.
func PrintJSON(c *ishell.Context, v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverDevices discovers devices.
func (s *Shell) DiscoverDevices(filter func(registry.DeviceInfo) bool) ([]registry.DeviceInfo, error) {
	infoList, err := s.Config.Discover(context.Background())
	if err != nil {
		return nil, err
	}
	if filter != nil {
		items := make([]registry.DeviceInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return infoList, nil
}

// SelectDevice discovers devices and asks for a choice.
func (s *Shell) SelectDevice(filter func(registry.DeviceInfo) bool) (*registry.DeviceInfo, error) {
	infoList, err := s.DiscoverDevices(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 devices discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect connects the device, linkURL overrides the announced link.
func (s *Shell) Connect(info registry.DeviceInfo, linkURL string) error {
	dc := &DeviceConn{Info: info}
	dc.Ctx, dc.Cancel = context.WithCancel(context.Background())
	conn, err := s.Config.Dial(dc.Ctx, info, linkURL)
	if err != nil {
		dc.Cancel()
		return err
	}
	dc.Conn = conn
	if s.Conn != nil {
		s.Conn.Cancel()
	}
	s.Conn = dc
	go func() {
		if err := conn.Run(dc.Ctx); err != nil && dc.Ctx.Err() == nil {
			log.Printf("connection to %s lost: %v", info.Ref.Name(), err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", info.Ref.Name()))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) autoConnect() error {
	if s.Config.LinkURL != "" {
		info, err := s.Config.DirectInfo()
		if err != nil {
			return err
		}
		return s.Connect(*info, "")
	}
	if !s.Config.Device.IsValid() {
		return nil
	}
	if s.Interactive {
		s.Shell.Printf("Connecting %s ...\n", s.Config.Device.Name())
	}
	info, err := s.Config.Lookup(context.Background(), s.Config.Device)
	if err != nil {
		return err
	}
	return s.Connect(*info, "")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if err := s.autoConnect(); err != nil {
			log.Fatalf("connect failed: %v", err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers devices.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverDevices(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []registry.DeviceInfo{}
				}
				PrintJSON(c, infoList)
				return
			}
			if len(infoList) == 0 {
				c.Println("No devices found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE [ID [LINK-URL]]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var filter func(registry.DeviceInfo) bool
			switch {
			case len(c.Args) >= 2:
				ref := registry.DeviceRef{Type: c.Args[0], ID: c.Args[1]}
				filter = func(info registry.DeviceInfo) bool { return info.Ref == ref }
			case len(c.Args) == 1:
				filter = func(info registry.DeviceInfo) bool { return info.Ref.Type == c.Args[0] }
			}
			info, err := s.SelectDevice(filter)
			if err != nil {
				c.Err(err)
				return
			}
			if info == nil {
				c.Err(fmt.Errorf("no device discovered"))
				return
			}
			var linkURL string
			if len(c.Args) > 2 {
				linkURL = c.Args[2]
			}
			if err := s.Connect(*info, linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// InfoCmd shows the connected device.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			info := s.Conn.Info
			if s.OutputJSON {
				PrintJSON(c, info)
				return
			}
			topo := info.Meta.Topology
			c.Println(FormatInfo(info))
			c.Printf("link:      %s\n", info.Meta.Link)
			c.Printf("scale:     %d\n", topo.Scale)
			c.Printf("acc width: %d\n", topo.AccumulatorWidth)
			c.Printf("signaling: %s\n", topo.Signaling)
			if info.Meta.HTTP != "" {
				c.Printf("http:      %s\n", info.Meta.HTTP)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(config.NewHostConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
