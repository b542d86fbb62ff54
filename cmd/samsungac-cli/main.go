// samsungac-cli is a command line tool for Samsung port-2878 air
// conditioners. It speaks to the unit directly over TLS; no daemon is
// required.
//
// Connection settings resolve flags > environment > saved config
// (~/.config/samsung-ac/config.json, written by the configure command).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

const (
	defaultCertFile = "./certs/ac14k_m.pem"

	// opTimeout bounds every device conversation. The unit answers in
	// well under a second on a healthy network.
	opTimeout = 30 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() string {
	return `Usage: samsungac-cli [flags] <command> [args]

Commands:
  status                      Show full AC state
  on | off                    Turn AC on or off
  mode <value>                Set operation mode (Auto|Cool|Heat|Dry|Wind)
  temp <16-30>                Set target temperature
  fan <value>                 Set fan speed (Auto|Low|Mid|High|Turbo)
  swing <value>               Set swing direction
  preset <value>              Set convenient mode (Off|Quiet|Sleep|Smart|SoftCool)
  autoclean <on|off>          Toggle auto clean
  spi <on|off>                Toggle ionizer (SPI)
  sleep <minutes>             Set sleep timer (0=off, 1-420)
  info                        Show firmware versions
  power-log <from> <to>       Get power usage history (dates: yy-MM-dd HH:mm)
  power-log-enable            Enable power logging
  power-log-disable           Disable power logging
  power-log-reset             Reset power logging data
  raw <xml>                   Send raw XML command
  configure                   Save connection config

Flags:
  --host <addr>    AC IP address (env SAMSUNG_AC_HOST)
  --token <token>  Auth token (env SAMSUNG_AC_TOKEN)
  --mac <mac>      MAC address (env SAMSUNG_AC_MAC)
  --cert <path>    Client certificate PEM (env SAMSUNG_AC_CERT)
  --unit <unit>    Power log aggregation, Hour or Day (default Day)
  --json           JSON output
`
}

// cliOptions carries the parsed global flags and remaining arguments.
type cliOptions struct {
	host  string
	token string
	mac   string
	cert  string
	unit  string
	json  bool
	args  []string
}

// parseArgs splits global flags from the command and its arguments.
// Flags may appear anywhere before the command.
func parseArgs(argv []string) (cliOptions, error) {
	opts := cliOptions{unit: "Day"}
	i := 0
	for i < len(argv) {
		arg := argv[i]
		if !strings.HasPrefix(arg, "--") {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		needValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			i++
			if i >= len(argv) {
				return "", fmt.Errorf("flag --%s requires a value", name)
			}
			return argv[i], nil
		}
		var err error
		switch name {
		case "host":
			opts.host, err = needValue()
		case "token":
			opts.token, err = needValue()
		case "mac":
			opts.mac, err = needValue()
		case "cert":
			opts.cert, err = needValue()
		case "unit":
			opts.unit, err = needValue()
		case "json":
			opts.json = true
		case "help":
			return opts, fmt.Errorf("%s", usage())
		default:
			return opts, fmt.Errorf("unknown flag --%s", name)
		}
		if err != nil {
			return opts, err
		}
		i++
	}
	opts.args = argv[i:]
	return opts, nil
}

func run(argv []string) error {
	opts, err := parseArgs(argv)
	if err != nil {
		return err
	}
	if len(opts.args) == 0 {
		fmt.Fprint(os.Stderr, usage())
		os.Exit(1)
	}

	command := opts.args[0]
	args := opts.args[1:]

	if command == "configure" {
		return cmdConfigure(opts)
	}

	client, err := connectClient(opts)
	if err != nil {
		return err
	}
	defer client.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch command {
	case "status":
		return cmdStatus(ctx, client, opts.json)
	case "on":
		return announce(client.SetPower(ctx, true), "Power: On")
	case "off":
		return announce(client.SetPower(ctx, false), "Power: Off")
	case "mode":
		v, err := oneOf(args, samsung2878.Modes)
		if err != nil {
			return err
		}
		return announce(client.SetMode(ctx, v), "Mode: "+v)
	case "temp":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return announce(client.SetTemperature(ctx, v), fmt.Sprintf("Temperature: %d °C", v))
	case "fan":
		v, err := oneOf(args, samsung2878.FanModes)
		if err != nil {
			return err
		}
		return announce(client.SetFanMode(ctx, v), "Fan: "+v)
	case "swing":
		v, err := oneOf(args, samsung2878.SwingModes)
		if err != nil {
			return err
		}
		return announce(client.SetSwingMode(ctx, v), "Swing: "+v)
	case "preset":
		v, err := oneOf(args, samsung2878.Presets)
		if err != nil {
			return err
		}
		return announce(client.SetPreset(ctx, v), "Preset: "+v)
	case "autoclean":
		on, err := onOffArg(args)
		if err != nil {
			return err
		}
		return announce(client.SetAutoClean(ctx, on), "Auto clean: "+onOffWord(on))
	case "spi":
		on, err := onOffArg(args)
		if err != nil {
			return err
		}
		return announce(client.SetIonizer(ctx, on), "Ionizer (SPI): "+onOffWord(on))
	case "sleep":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Sleep timer: %d min", v)
		if v == 0 {
			msg = "Sleep timer: Off"
		}
		return announce(client.SetSleepTimer(ctx, v), msg)
	case "info":
		return cmdInfo(ctx, client, opts.json)
	case "power-log":
		return cmdPowerLog(ctx, client, args, opts.unit, opts.json)
	case "power-log-enable":
		return announce(client.SetPowerLoggingMode(ctx, true), "Power logging: Enabled")
	case "power-log-disable":
		return announce(client.SetPowerLoggingMode(ctx, false), "Power logging: Disabled")
	case "power-log-reset":
		return announce(client.ResetPowerLogging(ctx), "Power logging data reset.")
	case "raw":
		if len(args) != 1 {
			return fmt.Errorf("raw requires one XML argument")
		}
		response, err := client.SendRawXML(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(response)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("unknown command %q", command)
	}
}

// connectClient resolves connection settings, dials the unit, and
// authenticates.
func connectClient(opts cliOptions) (*samsung2878.Client, error) {
	host, token, mac, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	certFile := opts.cert
	if certFile == "" {
		certFile = os.Getenv("SAMSUNG_AC_CERT")
	}
	if certFile == "" {
		certFile = defaultCertFile
	}
	dialer, err := samsung2878.NewTLSDialer(certFile)
	if err != nil {
		return nil, fmt.Errorf("loading certificate: %w", err)
	}

	client := samsung2878.NewClient(samsung2878.ClientConfig{
		Host:   host,
		Token:  token,
		DUID:   samsung2878.DUIDFromMAC(mac),
		Dialer: dialer,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if err := client.Authenticate(ctx); err != nil {
		client.Disconnect()
		return nil, err
	}
	return client, nil
}

// savedConfig is the on-disk shape of the configure command's output.
type savedConfig struct {
	Host  string `json:"host,omitempty"`
	Token string `json:"token,omitempty"`
	MAC   string `json:"mac,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "samsung-ac", "config.json"), nil
}

func loadSavedConfig() savedConfig {
	var cfg savedConfig
	path, err := configPath()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	//nolint:errcheck // a corrupt config file behaves like an empty one
	json.Unmarshal(data, &cfg)
	return cfg
}

// resolveConfig resolves host/token/mac from flags > env vars > config file.
func resolveConfig(opts cliOptions) (host, token, mac string, err error) {
	saved := loadSavedConfig()

	host = firstNonEmpty(opts.host, os.Getenv("SAMSUNG_AC_HOST"), saved.Host)
	token = firstNonEmpty(opts.token, os.Getenv("SAMSUNG_AC_TOKEN"), saved.Token)
	mac = firstNonEmpty(opts.mac, os.Getenv("SAMSUNG_AC_MAC"), saved.MAC)

	var missing []string
	if host == "" {
		missing = append(missing, "host")
	}
	if token == "" {
		missing = append(missing, "token")
	}
	if mac == "" {
		missing = append(missing, "mac")
	}
	if len(missing) > 0 {
		return "", "", "", fmt.Errorf(
			"missing %s; use --%s, env vars, or the configure command",
			strings.Join(missing, ", "), strings.Join(missing, "/--"),
		)
	}
	return host, token, mac, nil
}

func cmdConfigure(opts cliOptions) error {
	cfg := loadSavedConfig()
	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	if opts.mac != "" {
		cfg.MAC = opts.mac
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Config saved to %s\n", path)
	if cfg.Host != "" {
		fmt.Printf("  host: %s\n", cfg.Host)
	}
	if cfg.Token != "" {
		fmt.Printf("  token: %s\n", cfg.Token)
	}
	if cfg.MAC != "" {
		fmt.Printf("  mac: %s\n", cfg.MAC)
	}
	return nil
}

func cmdStatus(ctx context.Context, client *samsung2878.Client, asJSON bool) error {
	state, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(state)
	}
	fmt.Println(formatStateTable(state))
	return nil
}

func cmdInfo(ctx context.Context, client *samsung2878.Client, asJSON bool) error {
	info, err := client.GetSWInfo(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(info)
	}
	fmt.Printf("%-24s %s\n", "Panel version", info.PanelVersion)
	fmt.Printf("%-24s %s\n", "Outdoor version", info.OutdoorVersion)
	return nil
}

func cmdPowerLog(ctx context.Context, client *samsung2878.Client, args []string, unit string, asJSON bool) error {
	if len(args) != 2 {
		return fmt.Errorf("power-log requires <from> and <to> dates (yy-MM-dd HH:mm)")
	}
	const layout = "06-01-02 15:04"
	from, err := time.Parse(layout, args[0])
	if err != nil {
		return fmt.Errorf("from date must be yy-MM-dd HH:mm")
	}
	to, err := time.Parse(layout, args[1])
	if err != nil {
		return fmt.Errorf("to date must be yy-MM-dd HH:mm")
	}

	entries, err := client.GetPowerUsage(ctx, from, to, unit)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No power usage data.")
		return nil
	}
	fmt.Printf("%-16s %-12s %-8s\n", "Date", "Usage", "Time")
	fmt.Println(strings.Repeat("-", 36))
	for _, e := range entries {
		fmt.Printf("%-16s %-12.1f %-8s\n", e.Date, e.Usage, e.Time)
	}
	return nil
}

// formatStateTable renders the state as a readable table, appending any
// raw attributes that do not map onto a derived field.
func formatStateTable(state samsung2878.DeviceState) string {
	row := func(label, value string) string {
		return fmt.Sprintf("%-24s %s", label, value)
	}
	lines := []string{
		row("Power", onOffWord(state.Power)),
		row("Mode", state.Mode),
		row("Current temp", fmt.Sprintf("%g °C", state.CurrentTemp)),
		row("Target temp", fmt.Sprintf("%d °C", state.TargetTemp)),
		row("Fan mode", state.FanMode),
		row("Swing mode", state.SwingMode),
		row("Preset", state.Preset),
	}
	if state.OutdoorTemp != nil {
		lines = append(lines, row("Outdoor temp", fmt.Sprintf("%g °C", *state.OutdoorTemp)))
	}
	if state.Error != "" {
		lines = append(lines, row("Error", state.Error))
	}
	lines = append(lines,
		row("Auto clean", onOffWord(state.AutoClean)),
		row("Ionizer (SPI)", onOffWord(state.Ionizer)),
		row("Sleep timer", fmt.Sprintf("%d min", state.SleepTimerMinutes)),
	)
	if state.EnergyUsedKwh != nil {
		lines = append(lines, row("Energy usage", fmt.Sprintf("%g kWh", *state.EnergyUsedKwh)))
	}
	if state.LifetimeEnergyKwh != nil {
		lines = append(lines, row("Lifetime energy", fmt.Sprintf("%d kWh", *state.LifetimeEnergyKwh)))
	}
	if state.LifetimeRunHours != nil {
		lines = append(lines, row("Operating time", fmt.Sprintf("%d h", *state.LifetimeRunHours)))
	}
	if state.FilterUseHours != nil {
		lines = append(lines, row("Filter usage", fmt.Sprintf("%d h", *state.FilterUseHours)))
	}
	if state.FilterThresholdHours != nil {
		lines = append(lines, row("Filter threshold", fmt.Sprintf("%d h", *state.FilterThresholdHours)))
	}
	if state.CoolCapability != nil {
		lines = append(lines, row("Cool capability", strconv.Itoa(*state.CoolCapability)))
	}
	if state.WarmCapability != nil {
		lines = append(lines, row("Warm capability", strconv.Itoa(*state.WarmCapability)))
	}
	if state.PanelVersion != "" {
		lines = append(lines, row("Panel version", state.PanelVersion))
	}
	if state.OutdoorVersion != "" {
		lines = append(lines, row("Outdoor version", state.OutdoorVersion))
	}

	if extra := extraAttributes(state.Raw); len(extra) > 0 {
		lines = append(lines, "", "--- Raw attributes ---")
		for _, k := range extra {
			lines = append(lines, fmt.Sprintf("  %-30s %s", k, state.Raw[k]))
		}
	}

	return strings.Join(lines, "\n")
}

// knownAttributes are raw IDs already shown as derived rows.
var knownAttributes = map[string]struct{}{
	samsung2878.AttrPower:           {},
	samsung2878.AttrMode:            {},
	samsung2878.AttrCurrentTemp:     {},
	samsung2878.AttrTargetTemp:      {},
	samsung2878.AttrFanMode:         {},
	samsung2878.AttrSwingMode:       {},
	samsung2878.AttrPreset:          {},
	samsung2878.AttrError:           {},
	samsung2878.AttrSleepTimer:      {},
	samsung2878.AttrAutoClean:       {},
	samsung2878.AttrIonizer:         {},
	samsung2878.AttrEnergyUsed:      {},
	samsung2878.AttrLifetimeEnergy:  {},
	samsung2878.AttrLifetimeRun:     {},
	samsung2878.AttrFilterUse:       {},
	samsung2878.AttrFilterThreshold: {},
	samsung2878.AttrOutdoorTemp:     {},
	samsung2878.AttrCoolCapability:  {},
	samsung2878.AttrWarmCapability:  {},
	samsung2878.AttrPanelVersion:    {},
	samsung2878.AttrOutdoorVersion:  {},
}

// extraAttributes returns sorted raw attribute IDs with no derived row.
func extraAttributes(raw samsung2878.RawAttributes) []string {
	var keys []string
	for k := range raw {
		if _, known := knownAttributes[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// announce prints msg when the operation succeeded.
func announce(err error, msg string) error {
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func oneOf(args, accepted []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected one of: %s", strings.Join(accepted, ", "))
	}
	for _, v := range accepted {
		if strings.EqualFold(args[0], v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value %q (accepted: %s)", args[0], strings.Join(accepted, ", "))
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one integer argument")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", args[0])
	}
	return v, nil
}

func onOffArg(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("expected on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state %q (accepted: on, off)", args[0])
	}
}

func onOffWord(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
