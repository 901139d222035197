// Package main 是聊天组件的终端版本：每行输入作为一条消息发送。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"spur-chat-go/internal/config"
	"spur-chat-go/internal/model"
	"spur-chat-go/pkg/log"
	"spur-chat-go/pkg/widget"
	"strings"
	"syscall"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	apiURL := flag.String("api", "", "聊天后端地址，覆盖配置中的 widget.api_url")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	log.Init("warn", "console", "")
	defer log.Sync()

	if *apiURL != "" {
		cfg.Widget.APIURL = *apiURL
	}
	store, err := widget.NewFileSessionStore(cfg.Widget.SessionFile)
	if err != nil {
		log.Fatal("无法初始化会话存储", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := widget.New(widget.NewAPIClient(cfg.Widget.APIURL, nil), store)
	run(ctx, w, os.Stdin, os.Stdout)
}

func run(ctx context.Context, w *widget.Widget, in io.Reader, out io.Writer) {
	w.Restore(ctx)
	snap := w.Snapshot()
	if len(snap.Messages) == 0 {
		printWelcome(out)
	}
	for _, m := range snap.Messages {
		printMessage(out, m)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return
		case line == "/new":
			w.NewChat()
			printWelcome(out)
			continue
		case len(line) == 2 && line[0] == '/' && line[1] >= '1' && line[1] <= '9':
			// /1 /2 /3 选择快捷问题
			idx := int(line[1] - '1')
			if idx >= len(widget.SuggestedQuestions) {
				continue
			}
			w.QuickQuestion(widget.SuggestedQuestions[idx])
			fmt.Fprintf(out, "you: %s\n", w.Snapshot().Input)
		default:
			w.SetInput(line)
		}

		if !w.Send(ctx) {
			continue
		}
		snap := w.Snapshot()
		if snap.State == widget.StateRolledBack {
			fmt.Fprintf(out, "error: %s\n", snap.Error)
			continue
		}
		if n := len(snap.Messages); n > 0 {
			printMessage(out, snap.Messages[n-1])
		}
	}
}

func printWelcome(out io.Writer) {
	fmt.Fprintln(out, "Welcome to TechVibe Support! Ask me anything about our products, shipping, returns, or policies.")
	fmt.Fprintln(out, "Try asking:")
	for i, q := range widget.SuggestedQuestions {
		fmt.Fprintf(out, "  /%d %s\n", i+1, q)
	}
	fmt.Fprintln(out, "Commands: /new starts a new chat, /quit exits.")
}

func printMessage(out io.Writer, m model.Message) {
	who := "you"
	if m.Sender == model.SenderAI {
		who = "support"
	}
	fmt.Fprintf(out, "%s: %s\n", who, m.Text)
}
