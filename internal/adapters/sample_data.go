package adapters

import (
	"strconv"
	"strings"
	"sync"

	"resmerge/internal/ports"
)

// Built-in sample sets served when the project defines no sample data of
// that name.
var builtinSampleData = map[string][]string{
	"full_names":       {"Ada Lovelace", "Grace Hopper", "Alan Turing", "Edsger Dijkstra", "Barbara Liskov"},
	"first_names":      {"Ada", "Grace", "Alan", "Edsger", "Barbara"},
	"last_names":       {"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov"},
	"cities":           {"Amsterdam", "Eindhoven", "Helsinki", "Lisbon", "Montreal"},
	"us_zipcodes":      {"94043", "10001", "60601", "73301", "98101"},
	"us_phones":        {"(415) 555-0100", "(212) 555-0101", "(312) 555-0102"},
	"date_day_of_week": {"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	"lorem":            {"Lorem ipsum dolor sit amet, consectetur adipiscing elit."},
}

// RoundRobinSampleData hands out sample lines in order, wrapping around.
// A "[n]" selector pins one line; "[a:b]", "[a:]" and "[:b]" cycle through
// a sub range. Counters are kept per reference name.
type RoundRobinSampleData struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewRoundRobinSampleData() *RoundRobinSampleData {
	return &RoundRobinSampleData{counters: map[string]int{}}
}

func (s *RoundRobinSampleData) SampleDataLine(name string, lines []string) (string, bool) {
	base, selector := splitSampleSelector(name)
	if lines == nil {
		lines = builtinSampleData[base]
	}
	if len(lines) == 0 {
		return "", false
	}
	start, end, pinned, ok := parseSampleSelector(selector, len(lines))
	if !ok {
		return "", false
	}
	if pinned {
		return lines[start], true
	}
	s.mu.Lock()
	next := s.counters[name]
	s.counters[name] = next + 1
	s.mu.Unlock()
	return lines[start+next%(end-start)], true
}

// Reset forgets every counter, so the next render starts at the first line.
func (s *RoundRobinSampleData) Reset() {
	s.mu.Lock()
	s.counters = map[string]int{}
	s.mu.Unlock()
}

func splitSampleSelector(name string) (string, string) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, ""
	}
	return name[:open], name[open+1 : len(name)-1]
}

// parseSampleSelector returns the half-open line range a selector covers.
func parseSampleSelector(selector string, count int) (start int, end int, pinned bool, ok bool) {
	if selector == "" {
		return 0, count, false, true
	}
	from, to, isRange := strings.Cut(selector, ":")
	if !isRange {
		index, err := strconv.Atoi(selector)
		if err != nil || index < 0 {
			return 0, 0, false, false
		}
		return index % count, 0, true, true
	}
	start, end = 0, count
	if from != "" {
		n, err := strconv.Atoi(from)
		if err != nil || n < 0 {
			return 0, 0, false, false
		}
		start = min(n, count-1)
	}
	if to != "" {
		n, err := strconv.Atoi(to)
		if err != nil || n < 0 {
			return 0, 0, false, false
		}
		end = min(n, count)
	}
	if end <= start {
		return 0, 0, false, false
	}
	return start, end, false, true
}

var _ ports.SampleDataPort = (*RoundRobinSampleData)(nil)
