package supervisor

import (
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"example.com/heart/internal/sysiface"
	"example.com/heart/internal/wire"
)

// optionLabels maps sysiface.WatchdogOptions bits to the exact token
// names the info report's wdt_options field uses, in display order.
var optionLabels = []struct {
	bit   sysiface.WatchdogOptions
	label string
}{
	{sysiface.WDIOFOverheat, "overheat"},
	{sysiface.WDIOFFanFault, "fanfault"},
	{sysiface.WDIOFExternal1, "extern1"},
	{sysiface.WDIOFExternal2, "extern2"},
	{sysiface.WDIOFPowerUnder, "powerunder"},
	{sysiface.WDIOFCardReset, "cardreset"},
	{sysiface.WDIOFPowerOver, "powerover"},
	{sysiface.WDIOFSetTimeout, "settimeout"},
	{sysiface.WDIOFMagicClose, "magicclose"},
	{sysiface.WDIOFPreTimeout, "pretimeout"},
	{sysiface.WDIOFAlarmOnly, "alarmonly"},
	{sysiface.WDIOFKeepaliveping, "keepaliveping"},
}

// buildReport assembles the GET_CMD reply body as key=value lines, in a
// fixed key order, using go-ordered-map the same way the teacher pack
// threads deterministic map iteration through its own serialization
// paths.
func buildReport(st *State, wdt sysiface.WatchdogStatus, wdtTimeout int, wdtPetTimeLeft, now sysiface.Seconds) string {
	om := orderedmap.New[string, string]()

	put := func(k, v string) { om.Set(k, v) }
	putInt := func(k string, v int64) { put(k, strconv.FormatInt(v, 10)) }
	timeLeft := func(deadline sysiface.Seconds) sysiface.Seconds {
		left := deadline - now
		if left < 0 {
			left = 0
		}
		return left
	}

	put("program_name", st.ProgramName)
	put("program_version", st.ProgramVersion)
	putInt("heartbeat_timeout", int64(st.HeartbeatTimeout))
	putInt("heartbeat_time_left", int64(timeLeft(st.LastHeartBeatTime+st.HeartbeatTimeout)))
	putInt("init_grace_time_left", int64(timeLeft(st.InitGraceEndTime)))
	putInt("snooze_time_left", int64(timeLeft(st.SnoozeEndTime)))
	putInt("wdt_pet_time_left", int64(clampNonNegative(wdtPetTimeLeft)))
	put("init_handshake_happened", strconv.FormatBool(st.InitHandshakeHappened))
	putInt("init_handshake_timeout", int64(st.InitHandshakeTimeout))
	if st.InitHandshakeTimeout > 0 && !st.InitHandshakeHappened {
		putInt("init_handshake_time_left", int64(timeLeft(st.InitHandshakeEndTime)))
	} else {
		putInt("init_handshake_time_left", 0)
	}
	put("wdt_identity", wdt.Identity)
	putInt("wdt_firmware_version", int64(wdt.FirmwareVersion))
	put("wdt_options", wdtOptionsString(wdt.Options))
	putInt("wdt_time_left", int64(clampNonNegativeInt(wdt.TimeLeft)))
	putInt("wdt_pre_timeout", int64(clampNonNegativeInt(wdt.PreTimeout)))
	putInt("wdt_timeout", int64(wdtTimeout))
	if wdt.LastBootWatchdog {
		put("wdt_last_boot", "watchdog")
	} else {
		put("wdt_last_boot", "power_on")
	}

	var b strings.Builder
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(pair.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

func clampNonNegativeInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func wdtOptionsString(opts sysiface.WatchdogOptions) string {
	var labels []string
	for _, o := range optionLabels {
		if opts&o.bit != 0 {
			labels = append(labels, o.label)
		}
	}
	return strings.Join(labels, ",")
}

// writeReport emits the GET_CMD reply.
func writeReport(st *State, d Deps, now sysiface.Seconds) error {
	status := d.Watchdog.Status()

	wdtPetTimeLeft := (d.Watchdog.LastPetTime() + sysiface.Seconds(d.Watchdog.PetInterval())) - now
	if wdtPetTimeLeft < 0 {
		wdtPetTimeLeft = 0
	}

	body := buildReport(st, status, d.Watchdog.Timeout(), wdtPetTimeLeft, now)
	return d.Frames.WriteFrame(wire.OpHeartCmd, []byte(body))
}
