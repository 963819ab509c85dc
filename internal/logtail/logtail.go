package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines; maxLines <= 0 returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var all []string
		for scanner.Scan() {
			all = append(all, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return all, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one slog text-handler line split into its parts.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds the remaining key=value pairs in source order.
	Attrs []Attr
	Raw   string
}

// Attr is a single key=value pair.
type Attr struct {
	Key   string
	Value string
}

// Parse splits a slog text line. Lines that are not in that format come back
// with only Raw and Message set and an info level.
func Parse(line string) Entry {
	e := Entry{Raw: line, Level: slog.LevelInfo}
	pairs, ok := splitPairs(line)
	if !ok {
		e.Message = line
		return e
	}
	for _, p := range pairs {
		switch p.Key {
		case slog.TimeKey:
			if t, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				e.Time = t
			}
		case slog.LevelKey:
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(p.Value)); err == nil {
				e.Level = lvl
			}
		case slog.MessageKey:
			e.Message = p.Value
		default:
			e.Attrs = append(e.Attrs, p)
		}
	}
	return e
}

// Filter keeps entries at or above min.
func Filter(entries []Entry, min slog.Level) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}

// ParseAll parses lines in order.
func ParseAll(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Parse(l)
	}
	return out
}

func splitPairs(line string) ([]Attr, bool) {
	var out []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \t\"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return nil, false
			}
			unq, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return nil, false
			}
			value = unq
			rest = rest[end+1:]
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				sp = len(rest)
			}
			value = rest[:sp]
			rest = rest[sp:]
		}
		out = append(out, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " ")
	}
	return out, len(out) > 0
}

// closingQuote returns the index of the quote ending the string literal that
// starts at s[0].
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
