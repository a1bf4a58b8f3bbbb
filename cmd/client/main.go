package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/tuannm99/novadb"
	"github.com/tuannm99/novadb/internal/storage"
	"github.com/tuannm99/novadb/sqlclient"
)

const (
	prompt     = "novadb> "
	contPrompt = "   ...> "
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8866", "server address")
		dataDir    = flag.String("data-dir", "", "open this directory directly instead of dialing a server")
		mode       = flag.String("mode", "file", "storage mode in embedded mode: file | bolt | leveldb | pebble")
		codec      = flag.String("codec", "json", "storage codec in embedded mode: json | msgpack")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		histMax    = flag.Int("history-max", 2000, "max history lines loaded into memory")
		oneShotSQL = flag.String("c", "", "execute one SQL statement and exit")
	)
	flag.Parse()

	s, where, err := openSession(*addr, *dataDir, *mode, *codec, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = s.Close() }()

	// one-shot mode
	if strings.TrimSpace(*oneShotSQL) != "" {
		res, err := s.Exec(*oneShotSQL)
		if err != nil {
			printError(os.Stderr, err)
			os.Exit(1)
		}
		printResult(os.Stdout, res)
		return
	}

	h := NewHistory(*histPath)
	_ = h.Load(*histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Printf("connected to %s\n", where)
	fmt.Println("type .help for help")
	repl(rl, os.Stdout, s, h)
}

func openSession(addr, dataDir, mode, codec string, timeout time.Duration) (session, string, error) {
	if dataDir == "" {
		c, err := sqlclient.Dial(addr, timeout)
		if err != nil {
			return nil, "", err
		}
		return c, addr, nil
	}

	m, err := storage.ParseMode(mode)
	if err != nil {
		return nil, "", err
	}
	db, err := novadb.Open(novadb.Options{
		Mode:   m,
		Dir:    dataDir,
		Codec:  codec,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, "", err
	}
	return embedded{db}, dataDir, nil
}

func repl(rl *readline.Instance, w io.Writer, s session, h *History) {
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears current buffer
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt(prompt)
				continue
			}
			fmt.Fprintln(w, "^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(w)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && isMetaCommand(line) {
			if runMeta(w, s, h, line) == errExit {
				return
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if !statementComplete(buf.String()) {
			rl.SetPrompt(contPrompt)
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt(prompt)

		_ = h.Append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		res, err := s.Exec(stmt)
		if err != nil {
			printError(w, err)
			continue
		}
		printResult(w, res)
	}
}
