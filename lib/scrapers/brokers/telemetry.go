package brokers

import (
	"brokerscan/lib/restyutil"
	"brokerscan/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

var tracer = telemetry.Tracer("brokerscan.lib.scrapers.brokers")
var restyInstrumentOutput restyutil.InstrumentOutput

// must be called before NewClient for the output to take effect
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

func instrumentClient(client *resty.Client) {
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
}
