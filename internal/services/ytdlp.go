package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mist/internal/shared"
)

const (
	defaultYTDLP    = "yt-dlp"
	watchURL        = "https://www.youtube.com/watch?v="
	progressPrefix  = "progress:"
	filepathPrefix  = "filepath:"
	progressPattern = progressPrefix + "%(progress.downloaded_bytes)s/%(progress.total_bytes)s"

	// waitDelay bounds how long a killed yt-dlp may keep its output open through
	// children such as ffmpeg.
	waitDelay = 2 * time.Second
)

// WatchURL is the page of one entry.
func WatchURL(id string) string {
	return watchURL + id
}

// YTDLP drives the yt-dlp binary.
type YTDLP struct {
	binary string
	logger *log.Logger
}

// NewYTDLP creates an extractor. An empty binary resolves yt-dlp from PATH.
func NewYTDLP(binary string, logger *log.Logger) *YTDLP {
	if binary == "" {
		binary = defaultYTDLP
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &YTDLP{binary: binary, logger: logger}
}

// ListRemoteIDs runs a flat playlist extraction and returns the printed ids.
func (y *YTDLP) ListRemoteIDs(ctx context.Context, url string) ([]string, error) {
	out, err := y.run(ctx, "--flat-playlist", "--print", "id", url)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", url, err)
	}

	var ids []string
	for line := range strings.SplitSeq(string(out), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// RemoteTitle reads the playlist title from the first entry only.
func (y *YTDLP) RemoteTitle(ctx context.Context, url string) (string, error) {
	out, err := y.run(ctx, "--flat-playlist", "--playlist-items", "1", "--print", "playlist_title", url)
	if err != nil {
		return "", fmt.Errorf("failed to read title of %s: %w", url, err)
	}
	title, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if title == "" || title == "NA" {
		return "", fmt.Errorf("%w: %s has no title", shared.ErrInvalidArgument, url)
	}
	return title, nil
}

// FetchItem downloads the best audio stream of one entry and extracts it.
func (y *YTDLP) FetchItem(ctx context.Context, req FetchRequest, progress ProgressFunc) (string, error) {
	template := filepath.Join(req.Dir, shared.SanitizeFilename(req.Title)+"."+req.ID+".%(ext)s")
	args := []string{
		"--no-playlist",
		"--quiet", "--no-warnings",
		"--newline", "--progress",
		"--progress-template", progressPattern,
		"--print", "after_move:" + filepathPrefix + "%(filepath)s",
		"-f", "bestaudio",
		"-x",
		"-o", template,
		WatchURL(req.ID),
	}

	cmd := y.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	pr, pw := io.Pipe()
	cmd.Stdout = pw

	y.logger.Debug("downloading", "id", req.ID, "title", req.Title)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: failed to start %s: %v", shared.ErrItemFetch, y.binary, err)
	}

	scanned := make(chan string, 1)
	go func() { scanned <- scanFetchOutput(pr, progress) }()

	err := cmd.Wait()
	pw.Close()
	path := <-scanned
	if err != nil {
		if ctx.Err() != nil {
			return "", stopped(ctx)
		}
		return "", fmt.Errorf("%w: %s: %s", shared.ErrItemFetch, req.ID, lastLine(stderr.String(), err))
	}
	if path == "" {
		return "", fmt.Errorf("%w: %s: no file was produced", shared.ErrItemFetch, req.ID)
	}
	return path, nil
}

// command kills yt-dlp when ctx ends and stops waiting on its output after [waitDelay].
func (y *YTDLP) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, y.binary, args...)
	cmd.WaitDelay = waitDelay
	return cmd
}

func stopped(ctx context.Context) error {
	return fmt.Errorf("%w: %v", shared.ErrStopped, ctx.Err())
}

func (y *YTDLP) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := y.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	y.logger.Debug("running", "cmd", y.binary, "args", strings.Join(args, " "))
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, stopped(ctx)
		}
		return nil, errors.New(lastLine(stderr.String(), err))
	}
	return out, nil
}

// scanFetchOutput reports progress lines and returns the final file path. It drains r
// so the writer never blocks.
func scanFetchOutput(r io.Reader, progress ProgressFunc) string {
	var path string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, progressPrefix):
			if progress == nil {
				continue
			}
			done, total, ok := parseProgress(strings.TrimPrefix(line, progressPrefix))
			if ok {
				progress(done, total)
			}
		case strings.HasPrefix(line, filepathPrefix):
			path = strings.TrimPrefix(line, filepathPrefix)
		}
	}
	io.Copy(io.Discard, r)
	return path
}

func parseProgress(s string) (int64, int64, bool) {
	rawDone, rawTotal, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, false
	}
	done, err := strconv.ParseInt(rawDone, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	total, err := strconv.ParseInt(rawTotal, 10, 64)
	if err != nil {
		total = 0
	}
	return done, total, true
}

func lastLine(stderr string, err error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return err.Error()
}
