//go:build ignore

package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muurk/dohome/internal/protocol"
)

// LogEntry is the subset of a JSON log line written for each UDP datagram
// when the daemon runs at debug level with logging.file set
type LogEntry struct {
	Timestamp string `json:"ts"`
	Message   string `json:"msg"`
	Direction string `json:"direction"`
	Addr      string `json:"addr"`
	Length    int    `json:"length"`
	Hex       string `json:"hex"`
}

// Statistics tracks decoding results
type Statistics struct {
	TotalFiles    int
	TotalFrames   int
	Truncated     int
	DecodeSuccess int
	DecodeFailure int
	FrameKinds    map[string]int
	OpCodes       map[int]int
	Devices       map[string]string
	FailedFrames  []FailedFrame
}

// FailedFrame stores information about a decode failure
type FailedFrame struct {
	File       string
	LineNumber int
	Addr       string
	Preview    string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: decode-frames <directory-or-file>")
		fmt.Println("Example: decode-frames ~/.local/state/dohome/dohome.log")
		fmt.Println("         decode-frames ./logs/")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		FrameKinds: make(map[string]int),
		OpCodes:    make(map[int]int),
		Devices:    make(map[string]string),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		// Rotated files keep the .log extension
		files, err = filepath.Glob(filepath.Join(path, "*.log"))
		if err != nil {
			fmt.Printf("Error finding log files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No log files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== DoHome Frame Decoder ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil || entry.Message != "UDP datagram" {
			continue
		}
		stats.TotalFrames++

		fail := func(msg string) {
			stats.DecodeFailure++
			preview := entry.Hex
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			stats.FailedFrames = append(stats.FailedFrames, FailedFrame{
				File:       filename,
				LineNumber: lineNum,
				Addr:       entry.Addr,
				Preview:    preview,
				Error:      msg,
			})
		}

		// The logger cuts long dumps; those frames cannot be decoded
		if strings.HasSuffix(entry.Hex, "...") {
			stats.Truncated++
			continue
		}

		data, err := hex.DecodeString(entry.Hex)
		if err != nil {
			fail(fmt.Sprintf("hex decode error: %v", err))
			continue
		}

		kind, err := decode(data, stats)
		if err != nil {
			fail(err.Error())
			continue
		}
		stats.DecodeSuccess++
		stats.FrameKinds[entry.Direction+" "+kind]++
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error scanning %s: %v\n", filename, err)
	}
}

// decode classifies one datagram and records what it carries
func decode(data []byte, stats *Statistics) (string, error) {
	frame, err := protocol.ParseFrame(data)
	if err != nil {
		return "", err
	}

	switch frame.Cmd() {
	case protocol.CmdPing:
		return "ping", nil

	case protocol.CmdPong:
		a, err := protocol.ParseAnnouncement(data)
		if err != nil {
			return "", err
		}
		stats.Devices[a.SID] = fmt.Sprintf("%s %s at %s", a.DeviceName, a.DeviceType, a.IP)
		return "announcement", nil

	case protocol.CmdCtrl:
		if _, ok := frame.Get(protocol.FieldDev); ok {
			resp, err := protocol.ParseResponse(data)
			if err != nil {
				return "", err
			}
			stats.OpCodes[resp.Op.Cmd]++
			return "response", nil
		}
		req, err := protocol.ParseRequest(data)
		if err != nil {
			return "", err
		}
		if req.Op != nil {
			stats.OpCodes[req.Op.Cmd]++
		}
		return "request", nil

	default:
		return "", fmt.Errorf("unknown cmd %q", frame.Cmd())
	}
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("DECODE RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Frames:       %d\n", stats.TotalFrames)
	fmt.Printf("Truncated in log:   %d\n", stats.Truncated)
	if decoded := stats.DecodeSuccess + stats.DecodeFailure; decoded > 0 {
		fmt.Printf("Decode Success:     %d (%.2f%%)\n", stats.DecodeSuccess,
			float64(stats.DecodeSuccess)/float64(decoded)*100)
		fmt.Printf("Decode Failure:     %d (%.2f%%)\n", stats.DecodeFailure,
			float64(stats.DecodeFailure)/float64(decoded)*100)
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("FRAME KINDS\n")
	fmt.Printf("----------------------------------------\n")
	kinds := make([]string, 0, len(stats.FrameKinds))
	for k := range stats.FrameKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("%-24s %d\n", k, stats.FrameKinds[k])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("OP CODES\n")
	fmt.Printf("----------------------------------------\n")
	for code, count := range stats.OpCodes {
		fmt.Printf("%2d (%s): %d\n", code, opName(code), count)
	}

	if len(stats.Devices) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("DEVICES SEEN (%d)\n", len(stats.Devices))
		fmt.Printf("----------------------------------------\n")
		sids := make([]string, 0, len(stats.Devices))
		for sid := range stats.Devices {
			sids = append(sids, sid)
		}
		sort.Strings(sids)
		for _, sid := range sids {
			fmt.Printf("%s  %s\n", sid, stats.Devices[sid])
		}
	}

	if len(stats.FailedFrames) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("DECODE FAILURES (%d total)\n", len(stats.FailedFrames))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.FailedFrames) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n\n", maxShow, len(stats.FailedFrames))
		}
		for i, failed := range stats.FailedFrames {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d, from %s)\n", failed.File, failed.LineNumber, failed.Addr)
			fmt.Printf("  Error: %s\n", failed.Error)
			fmt.Printf("  Payload: %s\n", failed.Preview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.DecodeFailure == 0 {
		fmt.Printf("✅ SUCCESS: All frames decoded\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d frames failed to decode\n", stats.DecodeFailure)
	}
	fmt.Printf("========================================\n")
}

func opName(code int) string {
	switch code {
	case protocol.OpSetBinary:
		return "SetBinary"
	case protocol.OpSetColor:
		return "SetColor"
	case protocol.OpQueryStatus:
		return "QueryStatus"
	default:
		return "Unknown"
	}
}
