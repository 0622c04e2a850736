package config

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/winlinvip/go-writev/internal/errors"
)

// Group shape, fixed at compile time on the sender side.
const (
	GroupSize   = 10   // pairs per group
	HeaderSize  = 12   // bytes
	PayloadSize = 1024 // bytes
)

// Receiver constants
const (
	IdleReadThreshold = 2048 // consecutive empty reads before giving up
	ReadBufferSize    = 4096
	ReceiverHost      = "127.0.0.1"
)

// Network and reporting constants
const (
	ListenHost      = "0.0.0.0"
	TCPBufferSize   = 1024 * 1024 // 1MB
	TraceInterval   = 3 * time.Second
	KeepAlivePeriod = 30 * time.Second
	MaxPort         = 65535
)

// ErrHelp is returned by the parsers when -h or --help was requested.
var ErrHelp = flag.ErrHelp

// Config holds all configuration parameters for one process
type Config struct {
	IsServer bool
	Port     int

	// Sender settings
	ScatterGather bool
	WriteOneByOne bool
	GroupSize     int
	HeaderSize    int
	PayloadSize   int

	// Receiver settings
	IdleReadThreshold int
	ReadBufferSize    int

	TraceInterval time.Duration
}

// ListenAddress is the address the sender binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", ListenHost, c.Port)
}

// ServerAddress is the address the receiver dials.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ReceiverHost, c.Port)
}

// GroupBytes is the number of bytes one group puts on the wire.
func (c *Config) GroupBytes() int {
	return c.GroupSize * (c.HeaderSize + c.PayloadSize)
}

// StrategyName names the send strategy the sender flags select.
func (c *Config) StrategyName() string {
	switch {
	case c.ScatterGather:
		return "scatter-gather"
	case c.WriteOneByOne:
		return "write-sequential"
	default:
		return "write-coalesced"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > MaxPort {
		return errors.NewConfigError("port", c.Port, fmt.Sprintf("must be between 1 and %d", MaxPort))
	}
	if c.TraceInterval <= 0 {
		return errors.NewConfigError("trace_interval", c.TraceInterval, "must be positive")
	}

	if c.IsServer {
		if c.GroupSize <= 0 {
			return errors.NewConfigError("group_size", c.GroupSize, "must be positive")
		}
		if c.HeaderSize <= 0 {
			return errors.NewConfigError("header_size", c.HeaderSize, "must be positive")
		}
		if c.PayloadSize <= 0 {
			return errors.NewConfigError("payload_size", c.PayloadSize, "must be positive")
		}
		return nil
	}

	if c.IdleReadThreshold <= 0 {
		return errors.NewConfigError("idle_read_threshold", c.IdleReadThreshold, "must be positive")
	}
	if c.ReadBufferSize <= 0 {
		return errors.NewConfigError("read_buffer_size", c.ReadBufferSize, "must be positive")
	}
	return nil
}

// ParseSenderArgs parses `<port> <use_scatter_gather> [write_one_by_one]`.
// args includes the program name, as os.Args does.
func ParseSenderArgs(args []string) (*Config, error) {
	positional, err := parse(args)
	if err != nil {
		return nil, err
	}

	if len(positional) < 2 {
		return nil, errors.NewConfigError("args", len(positional), "expected <port> <use_scatter_gather> [write_one_by_one]")
	}
	if len(positional) > 3 {
		return nil, errors.NewConfigError("args", len(positional), "too many arguments")
	}

	port, err := parsePort(positional[0])
	if err != nil {
		return nil, err
	}
	scatterGather, err := parseBool("use_scatter_gather", positional[1])
	if err != nil {
		return nil, err
	}

	// The third argument only matters for plain writes.
	var oneByOne bool
	if len(positional) == 3 && !scatterGather {
		if oneByOne, err = parseBool("write_one_by_one", positional[2]); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		IsServer:      true,
		Port:          port,
		ScatterGather: scatterGather,
		WriteOneByOne: oneByOne,
		GroupSize:     GroupSize,
		HeaderSize:    HeaderSize,
		PayloadSize:   PayloadSize,
		TraceInterval: TraceInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseReceiverArgs parses `<port>`.
func ParseReceiverArgs(args []string) (*Config, error) {
	positional, err := parse(args)
	if err != nil {
		return nil, err
	}

	if len(positional) != 1 {
		return nil, errors.NewConfigError("args", len(positional), "expected exactly <port>")
	}

	port, err := parsePort(positional[0])
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		IsServer:          false,
		Port:              port,
		IdleReadThreshold: IdleReadThreshold,
		ReadBufferSize:    ReadBufferSize,
		TraceInterval:     TraceInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parse runs a flag set that only knows -h and returns the positional
// arguments. Usage is printed by the caller.
func parse(args []string) ([]string, error) {
	program := ProgramName(args)
	if len(args) > 0 {
		args = args[1:]
	}

	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, ErrHelp
		}
		return nil, errors.NewConfigError("args", args, err.Error())
	}
	return fs.Args(), nil
}

// ProgramName returns the base name of args[0].
func ProgramName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "writev"
	}
	return filepath.Base(args[0])
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewConfigError("port", s, "must be a number")
	}
	if port <= 0 || port > MaxPort {
		return 0, errors.NewConfigError("port", s, fmt.Sprintf("must be between 1 and %d", MaxPort))
	}
	return port, nil
}

func parseBool(field, s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.NewConfigError(field, s, "must be true or false")
}

// SenderUsage prints the sender usage text.
func SenderUsage(w io.Writer, program string) {
	fmt.Fprintf(w, "Usage: %s <port> <use_scatter_gather> [write_one_by_one]\n", program)
	fmt.Fprintln(w, "   port: the tcp listen port.")
	fmt.Fprintln(w, "   use_scatter_gather: whether use writev. true or false.")
	fmt.Fprintln(w, "   write_one_by_one: for write(not writev), whether send packet one by one. default false.")
	fmt.Fprintln(w, "For example:")
	fmt.Fprintf(w, "   %s 1985 true\n", program)
	fmt.Fprintf(w, "   %s 1985 false true\n", program)
	fmt.Fprintf(w, "   %s 1985 false false\n", program)
}

// ReceiverUsage prints the receiver usage text.
func ReceiverUsage(w io.Writer, program string) {
	fmt.Fprintf(w, "Usage: %s <port>\n", program)
	fmt.Fprintln(w, "   port: the tcp port to connect to.")
	fmt.Fprintln(w, "For example:")
	fmt.Fprintf(w, "   %s 1985\n", program)
}

// String returns a string representation of the config for logging
func (c *Config) String() string {
	if c.IsServer {
		return fmt.Sprintf("Config{Mode: Sender, Port: %d, Strategy: %s, Group: %d, Header: %d, Payload: %d}",
			c.Port, c.StrategyName(), c.GroupSize, c.HeaderSize, c.PayloadSize)
	}

	return fmt.Sprintf("Config{Mode: Receiver, Port: %d, IdleReads: %d, ReadBuffer: %d}",
		c.Port, c.IdleReadThreshold, c.ReadBufferSize)
}
