package naverblog

import (
	"blogtracker-backend/lib/restyutil"
	"blogtracker-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("blogtracker.lib.scrapers.naverblog")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables exchange dumps for clients created
// after this call.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
