package b3

// SampleSettlements is an illustrative DI1 strip for development; it is not
// official B3 settlement data.
var SampleSettlements = map[string]map[string]float64{
	"2024-04-24": {
		"DI1N24": 0.10380,
		"DI1F25": 0.10195,
		"DI1N25": 0.10170,
		"DI1F26": 0.10420,
		"DI1F27": 0.10805,
		"DI1F28": 0.11090,
		"DI1F29": 0.11280,
		"DI1F30": 0.11400,
		"DI1F31": 0.11480,
		"DI1F33": 0.11560,
	},
}
