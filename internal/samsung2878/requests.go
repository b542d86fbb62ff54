package samsung2878

import (
	"fmt"
	"strings"
	"time"
)

// The firmware ignores command correlation, so every control carries
// the same placeholder identifier.
const commandID = "cmd00000"

// powerUsageDateFormat is the timestamp layout the firmware expects in
// GetPowerUsage requests ("yy-MM-dd HH:mm").
const powerUsageDateFormat = "06-01-02 15:04"

func authTokenRequest(token string) string {
	return fmt.Sprintf(`<Request Type="AuthToken"><User Token="%s"/></Request>`, escapeAttr(token))
}

func deviceStateRequest(duid string) string {
	return fmt.Sprintf(`<Request Type="DeviceState" DUID="%s"></Request>`, escapeAttr(duid))
}

func deviceControlRequest(duid string, attrs RawAttributes) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<Request Type="DeviceControl"><Control CommandID="%s" DUID="%s">`,
		commandID, escapeAttr(duid))
	b.WriteString(EncodeAttributes(attrs))
	b.WriteString(`</Control></Request>`)
	return b.String()
}

func swInfoRequest(duid string) string {
	return fmt.Sprintf(`<Request Type="GetSWInfo" DUID="%s"></Request>`, escapeAttr(duid))
}

func getPowerLoggingModeRequest(duid string) string {
	return fmt.Sprintf(`<Request Type="GetPowerLoggingMode" DUID="%s"></Request>`, escapeAttr(duid))
}

func setPowerLoggingModeRequest(duid string, enable bool) string {
	mode := "Disable"
	if enable {
		mode = "Enable"
	}
	return fmt.Sprintf(`<Request Type="SetPowerLoggingMode" DUID="%s" Mode="%s"></Request>`,
		escapeAttr(duid), mode)
}

func resetPowerLoggingRequest(duid string) string {
	return fmt.Sprintf(`<Request Type="ResetPowerLogging" DUID="%s"></Request>`, escapeAttr(duid))
}

func getPowerUsageRequest(duid string, from, to time.Time, unit string) string {
	return fmt.Sprintf(`<Request Type="GetPowerUsage" DUID="%s" StartDate="%s" EndDate="%s" Unit="%s"></Request>`,
		escapeAttr(duid),
		from.Format(powerUsageDateFormat),
		to.Format(powerUsageDateFormat),
		escapeAttr(unit))
}
