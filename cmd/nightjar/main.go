// Command nightjar is a minimal host process for the multi-track audio
// engine: it wires a real duplex driver to the engine facade and exercises
// the add-track / play / record control-plane calls from the terminal.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/CLCaron/nightjar-sub000/internal/config"
	"github.com/CLCaron/nightjar-sub000/internal/driver/malgo"
	"github.com/CLCaron/nightjar-sub000/internal/engine"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	backend, err := malgo.Open()
	if err != nil {
		log.Fatalf("failed to open audio backend: %v", err)
	}

	eng := engine.New(backend)
	if err := eng.Initialize(); err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}
	defer eng.Shutdown()

	log.Println("nightjar engine ready")
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		runCommand(eng, cfg, strings.TrimSpace(scanner.Text()))
	}
}

func printHelp() {
	fmt.Println(`commands:
  add <id> <path> <offsetMs> <trimStartMs> <trimEndMs> <volume>
  remove <id>
  removeall
  play
  pause
  seek <ms>
  loop <startMs> <endMs>
  unloop
  record start|await|gate|stop
  status
  quit`)
}

func runCommand(eng *engine.Engine, cfg *config.Config, line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit":
		os.Exit(0)
	case "add":
		if len(fields) != 7 {
			fmt.Println("usage: add <id> <path> <offsetMs> <trimStartMs> <trimEndMs> <volume>")
			return
		}
		id, _ := strconv.ParseInt(fields[1], 10, 32)
		offset, _ := strconv.ParseInt(fields[3], 10, 64)
		trimStart, _ := strconv.ParseInt(fields[4], 10, 64)
		trimEnd, _ := strconv.ParseInt(fields[5], 10, 64)
		volume, _ := strconv.ParseFloat(fields[6], 32)
		if !eng.AddTrack(int32(id), fields[2], offset, trimStart, trimEnd, float32(volume), false) {
			fmt.Println("add failed: could not open source")
		}
	case "remove":
		if len(fields) != 2 {
			fmt.Println("usage: remove <id>")
			return
		}
		id, _ := strconv.ParseInt(fields[1], 10, 32)
		eng.RemoveTrack(int32(id))
	case "removeall":
		eng.RemoveAllTracks()
	case "play":
		eng.Play()
	case "pause":
		eng.Pause()
	case "seek":
		if len(fields) != 2 {
			fmt.Println("usage: seek <ms>")
			return
		}
		ms, _ := strconv.ParseInt(fields[1], 10, 64)
		eng.SeekToMillis(ms)
	case "loop":
		if len(fields) != 3 {
			fmt.Println("usage: loop <startMs> <endMs>")
			return
		}
		start, _ := strconv.ParseInt(fields[1], 10, 64)
		end, _ := strconv.ParseInt(fields[2], 10, 64)
		eng.SetLoopRegion(start, end)
	case "unloop":
		eng.ClearLoopRegion()
	case "record":
		runRecordCommand(eng, cfg, fields)
	case "status":
		fmt.Printf("playing=%v pos=%dms total=%dms loopResets=%d\n",
			eng.IsPlaying(), eng.PositionMillis(), eng.TotalDurationMillis(), eng.LoopResetCount())
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
}

func runRecordCommand(eng *engine.Engine, cfg *config.Config, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: record start|await|gate|stop")
		return
	}
	switch fields[1] {
	case "start":
		if err := eng.StartRecording(cfg.RecordPath); err != nil {
			fmt.Printf("start failed: %v\n", err)
		}
	case "await":
		if !eng.AwaitFirstBuffer(cfg.AwaitFirstBufferMs) {
			fmt.Println("timed out awaiting first buffer")
		}
	case "gate":
		eng.OpenWriteGate()
	case "stop":
		duration := eng.StopRecording()
		fmt.Printf("recorded %dms\n", duration)
	default:
		fmt.Println("usage: record start|await|gate|stop")
	}
}
