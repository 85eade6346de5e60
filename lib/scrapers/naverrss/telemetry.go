package naverrss

import (
	"blogtracker-backend/lib/restyutil"
	"blogtracker-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("blogtracker.lib.scrapers.naverrss")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
