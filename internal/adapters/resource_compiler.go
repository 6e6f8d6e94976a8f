package adapters

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const (
	flatMagic   = "RFLT"
	flatVersion = 1
	flatSuffix  = ".flat"
)

// zstd encoders and decoders are safe for concurrent use, so one of each
// serves every worker.
var (
	flatEncoder *zstd.Encoder
	flatDecoder *zstd.Decoder
)

func init() {
	var err error
	flatEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("adapters: zstd encoder initialization failed: " + err.Error())
	}
	flatDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("adapters: zstd decoder initialization failed: " + err.Error())
	}
}

// compilePool runs compile jobs on a bounded number of goroutines and
// keeps the first failure. Work submitted after a failure is dropped until
// close reports it; the pool is reusable afterwards.
type compilePool struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	errMu    sync.Mutex
	firstErr error
}

func newCompilePool(workers int) *compilePool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &compilePool{ctx: ctx, cancel: cancel, sem: make(chan struct{}, workers)}
}

func (p *compilePool) submit(ctx context.Context, job func() error) error {
	if err := ctx.Err(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("compile request canceled").
			WithCause(err)
	}
	p.errMu.Lock()
	poolCtx, failed := p.ctx, p.firstErr
	p.errMu.Unlock()
	if failed != nil {
		return failed
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		if poolCtx.Err() != nil || ctx.Err() != nil {
			return
		}
		if err := job(); err != nil {
			p.errMu.Lock()
			if p.firstErr == nil {
				p.firstErr = err
				p.cancel()
			}
			p.errMu.Unlock()
		}
	}()
	return nil
}

func (p *compilePool) close() error {
	p.wg.Wait()
	p.errMu.Lock()
	defer p.errMu.Unlock()
	err := p.firstErr
	if err != nil {
		p.firstErr = nil
		p.ctx, p.cancel = context.WithCancel(context.Background())
	}
	return err
}

// FlatCompiler packs each merged file into a zstd compressed container
// named after its folder, like "values-en_values-en.arsc.flat" or
// "drawable-hdpi_icon.png.flat".
type FlatCompiler struct {
	pool *compilePool
}

func NewFlatCompiler(workers int) *FlatCompiler {
	return &FlatCompiler{pool: newCompilePool(workers)}
}

func (c *FlatCompiler) Submit(ctx context.Context, request ports.CompileRequest) error {
	output := c.OutputFor(request)
	return c.pool.submit(ctx, func() error {
		if err := writeFlat(request, output); err != nil {
			return err
		}
		log.Ctx(ctx).Debug().Str("input", request.Input).Str("output", output).Msg("compiled resource")
		return nil
	})
}

func (c *FlatCompiler) OutputFor(request ports.CompileRequest) string {
	base := filepath.Base(request.Input)
	folderType, _ := SplitFolderName(request.FolderName)
	if folderType == policies.ValuesFolder {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ".arsc"
	}
	return filepath.Join(request.OutputDir, request.FolderName+"_"+base+flatSuffix)
}

func (c *FlatCompiler) Close() error {
	return c.pool.close()
}

// The container is the magic, a version byte, the folder name with a
// uint16 length prefix, then one zstd frame holding the file content.
func writeFlat(request ports.CompileRequest, output string) error {
	content, err := os.ReadFile(request.Input)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read compile input " + request.Input).
			WithCause(err)
	}
	var buf bytes.Buffer
	buf.WriteString(flatMagic)
	buf.WriteByte(flatVersion)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(request.FolderName)))
	buf.WriteString(request.FolderName)
	buf.Write(flatEncoder.EncodeAll(content, nil))
	return writeOutput(output, buf.Bytes())
}

// ReadFlat decodes a container written by FlatCompiler.
func ReadFlat(path string) (folder string, content []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read flat file " + path).
			WithCause(err)
	}
	reader := bytes.NewReader(data)
	header := make([]byte, len(flatMagic)+1)
	var size uint16
	if _, err := io.ReadFull(reader, header); err != nil || string(header[:len(flatMagic)]) != flatMagic {
		return "", nil, invalidFlat(path, "bad magic")
	}
	if header[len(flatMagic)] != flatVersion {
		return "", nil, invalidFlat(path, "unsupported version")
	}
	if err := binary.Read(reader, binary.BigEndian, &size); err != nil {
		return "", nil, invalidFlat(path, "truncated header")
	}
	name := make([]byte, size)
	if _, err := io.ReadFull(reader, name); err != nil {
		return "", nil, invalidFlat(path, "truncated folder name")
	}
	rest, _ := io.ReadAll(reader)
	content, err = flatDecoder.DecodeAll(rest, nil)
	if err != nil {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("corrupt flat payload in " + path).
			WithCause(err)
	}
	return string(name), content, nil
}

func invalidFlat(path string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid flat file " + path + ": " + reason)
}

// CopyCompiler copies inputs verbatim into a res-style tree:
// OutputDir/<folder>/<file>.
type CopyCompiler struct {
	pool *compilePool
}

func NewCopyCompiler(workers int) *CopyCompiler {
	return &CopyCompiler{pool: newCompilePool(workers)}
}

func (c *CopyCompiler) Submit(ctx context.Context, request ports.CompileRequest) error {
	output := c.OutputFor(request)
	return c.pool.submit(ctx, func() error {
		content, err := os.ReadFile(request.Input)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("failed to read compile input " + request.Input).
				WithCause(err)
		}
		return writeOutput(output, content)
	})
}

func (c *CopyCompiler) OutputFor(request ports.CompileRequest) string {
	return filepath.Join(request.OutputDir, request.FolderName, filepath.Base(request.Input))
}

func (c *CopyCompiler) Close() error {
	return c.pool.close()
}

// NewResourceCompiler returns the compiler for a layout compiler kind.
func NewResourceCompiler(kind types.CompilerKind, workers int) (ports.ResourceCompilerPort, error) {
	switch kind {
	case types.CompilerKindFlat, "":
		return NewFlatCompiler(workers), nil
	case types.CompilerKindCopy:
		return NewCopyCompiler(workers), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown compiler " + string(kind))
	}
}

// writeOutput writes through a temp file in the same folder so readers
// never see a partial output.
func writeOutput(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output folder").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output file").
			WithCause(err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace " + path).
			WithCause(err)
	}
	return nil
}

var (
	_ ports.ResourceCompilerPort = (*FlatCompiler)(nil)
	_ ports.ResourceCompilerPort = (*CopyCompiler)(nil)
)
