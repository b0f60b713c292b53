// Package pipeline turns a document into one spoken audio track: strip
// markdown, split the text into chunks the engine can handle, synthesize
// every chunk, and join the results with a pause at each chunk boundary.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/config"
	"github.com/bobarin/readaloud/internal/document"
	"github.com/bobarin/readaloud/internal/markdown"
	"github.com/bobarin/readaloud/internal/segment"
	"github.com/bobarin/readaloud/internal/tts"
)

// Pipeline drives one document through chunking, synthesis and assembly.
type Pipeline struct {
	engine   tts.Engine
	cfg      *config.Config
	log      *zap.SugaredLogger
	tempBase string // parent directory for kept chunk files
}

// New creates a pipeline around a synthesis engine. The logger may be nil.
func New(engine tts.Engine, cfg *config.Config, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		engine:   engine,
		cfg:      cfg,
		log:      log,
		tempBase: os.TempDir(),
	}
}

// Chunks returns the chunk texts a document will be synthesized as.
func (p *Pipeline) Chunks(doc *document.Document) ([]string, error) {
	text := doc.Text
	if doc.Markdown {
		text = markdown.Strip(text)
	}
	chunks := segment.Split(text, p.cfg.ChunkChars)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	return chunks, nil
}

// Synthesize produces the assembled audio for a document in memory.
func (p *Pipeline) Synthesize(ctx context.Context, doc *document.Document) (*audio.Buffer, error) {
	chunks, err := p.Chunks(doc)
	if err != nil {
		return nil, err
	}

	p.log.Infof("synthesizing %d chunk(s) (engine=%s, voice=%s)", len(chunks), p.engine.Name(), p.cfg.Voice)
	start := time.Now()

	buffers, err := p.synthesizeChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if p.cfg.KeepTemp {
		if dir, err := p.saveChunks(buffers); err != nil {
			p.log.Warnf("failed to keep chunk files: %v", err)
		} else {
			p.log.Infof("chunk files kept in %s", dir)
		}
	}

	out, err := audio.Assemble(buffers, p.cfg.PauseMs, p.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble audio: %w", err)
	}

	p.log.Infof("synthesized %s of audio in %s", out.Duration().Round(100*time.Millisecond), time.Since(start).Round(time.Millisecond))
	return out, nil
}

// Run synthesizes a document and writes the result to outPath. The file
// appears only when the whole pipeline succeeded.
func (p *Pipeline) Run(ctx context.Context, doc *document.Document, outPath string) error {
	buf, err := p.Synthesize(ctx, doc)
	if err != nil {
		return err
	}
	if err := audio.WriteFile(outPath, buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	p.log.Infof("wrote %s (%.1fs)", outPath, buf.Duration().Seconds())
	return nil
}

// synthesizeChunks fills a buffer per chunk, in chunk order. With parallelism
// each slot has exactly one writing goroutine, so the slice needs no lock.
func (p *Pipeline) synthesizeChunks(ctx context.Context, chunks []string) ([]*audio.Buffer, error) {
	buffers := make([]*audio.Buffer, len(chunks))

	if p.cfg.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Parallel)
		for i, chunk := range chunks {
			g.Go(func() error {
				buf, err := p.synthesizeOne(gctx, i, len(chunks), chunk)
				if err != nil {
					return err
				}
				buffers[i] = buf
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return buffers, nil
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, err := p.synthesizeOne(ctx, i, len(chunks), chunk)
		if err != nil {
			return nil, err
		}
		buffers[i] = buf
	}
	return buffers, nil
}

func (p *Pipeline) synthesizeOne(ctx context.Context, i, total int, chunk string) (*audio.Buffer, error) {
	p.log.Infof("chunk %d/%d (%d chars)", i+1, total, utf8.RuneCountInString(chunk))
	buf, err := p.engine.Synthesize(ctx, chunk)
	if err != nil {
		return nil, &SynthesisError{Chunk: i + 1, Total: total, Err: err}
	}
	if buf == nil || len(buf.PCM) == 0 {
		return nil, &SynthesisError{Chunk: i + 1, Total: total, Err: tts.ErrEmptyAudio}
	}
	return buf, nil
}

// saveChunks writes each chunk's audio into a fresh directory so failed or
// suspicious runs can be inspected chunk by chunk.
func (p *Pipeline) saveChunks(buffers []*audio.Buffer) (string, error) {
	dir := filepath.Join(p.tempBase, "readaloud-"+uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for i, buf := range buffers {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%04d.wav", i+1))
		if err := audio.WriteFile(path, buf); err != nil {
			return "", err
		}
	}
	return dir, nil
}
