package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/workflow"
)

// skipAnswer typed at the title prompt leaves the file untouched.
const skipAnswer = "!skip"

// terminalPrompter asks questions on out and reads answers line by line from
// in. An empty answer keeps the bracketed default.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

var (
	_ tagplan.Prompter       = (*terminalPrompter)(nil)
	_ workflow.AlbumPrompter = (*terminalPrompter)(nil)
)

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Resolve(ctx context.Context, req tagplan.ManualRequest) (tagplan.ManualResponse, error) {
	fmt.Fprintf(p.out, "\n[%d/%d] %s (%s)\n", req.Ordinal, req.Total, req.Path, req.Provenance)
	if req.Current.Title != "" || req.Current.Artist != "" {
		fmt.Fprintf(p.out, "  current: %s / %s\n", orDash(req.Current.Title), orDash(req.Current.Artist))
	}
	fmt.Fprintf(p.out, "  Enter keeps the value in brackets; type %s at the title to leave this file alone.\n", skipAnswer)

	title, err := p.ask(ctx, "Title", req.Suggestion.Title)
	if err != nil {
		return tagplan.ManualResponse{}, err
	}
	if title == skipAnswer {
		return tagplan.ManualResponse{Skip: true}, nil
	}
	artist, err := p.ask(ctx, "Artist", req.Suggestion.Artist)
	if err != nil {
		return tagplan.ManualResponse{}, err
	}
	track, err := p.askNumber(ctx, "Track", req.Suggestion.TrackNumber)
	if err != nil {
		return tagplan.ManualResponse{}, err
	}
	return tagplan.ManualResponse{Values: tagplan.TagValues{
		Title:       title,
		Artist:      artist,
		TrackNumber: track,
	}}, nil
}

func (p *terminalPrompter) Confirm(ctx context.Context, req tagplan.ConfirmRequest) (bool, error) {
	question := fmt.Sprintf("Write tags to %d file(s)", req.Writable)
	if req.Counts.Unresolved > 0 {
		question += fmt.Sprintf(" and leave %d unresolved", req.Counts.Unresolved)
	}
	answer, err := p.ask(ctx, question+"? [y/N]", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *terminalPrompter) Album(ctx context.Context, req workflow.AlbumRequest) (workflow.AlbumResponse, error) {
	fmt.Fprintf(p.out, "\nAlbum details for %s\n", req.Dir)
	title, err := p.ask(ctx, "Album", req.DefaultTitle)
	if err != nil {
		return workflow.AlbumResponse{}, err
	}
	artist, err := p.ask(ctx, "Album artist", req.DefaultArtist)
	if err != nil {
		return workflow.AlbumResponse{}, err
	}
	date, err := p.ask(ctx, "Date", req.DefaultDate)
	if err != nil {
		return workflow.AlbumResponse{}, err
	}
	return workflow.AlbumResponse{Title: title, Artist: artist, Date: date}, nil
}

func (p *terminalPrompter) ask(ctx context.Context, label, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrAborted, "", "prompt", "interrupted", err)
	}
	if def != "" {
		fmt.Fprintf(p.out, "  %s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "  %s: ", label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(p.out)
		return "", services.Wrap(services.ErrAborted, "", "prompt", "input closed", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *terminalPrompter) askNumber(ctx context.Context, label string, def int) (int, error) {
	defText := ""
	if def > 0 {
		defText = strconv.Itoa(def)
	}
	for {
		answer, err := p.ask(ctx, label, defText)
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintf(p.out, "  %q is not a positive number\n", answer)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
