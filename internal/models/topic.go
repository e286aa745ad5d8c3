package models

// The exam covers six fixed topics.
const (
	TopicMin = 1
	TopicMax = 6
)

// TopicNamesHU maps topic numbers to their Hungarian names.
var TopicNamesHU = map[int]string{
	1: "Nemzeti jelképek és ünnepek",
	2: "Magyar történelem",
	3: "Irodalom és zene",
	4: "Alaptörvény és intézmények",
	5: "Állampolgári jogok",
	6: "Mindennapi Magyarország",
}

// TopicNamesEN maps topic numbers to their English names.
var TopicNamesEN = map[int]string{
	1: "National Symbols & Holidays",
	2: "Hungarian History",
	3: "Literature & Music",
	4: "Fundamental Law & Institutions",
	5: "Citizens' Rights",
	6: "Everyday Hungary",
}

// TopicStat aggregates attempt counters for one topic.
type TopicStat struct {
	Topic    int `json:"topic"`
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
}

// Accuracy returns correct/attempts, or 0 for an unattempted topic.
func (t TopicStat) Accuracy() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempts)
}
