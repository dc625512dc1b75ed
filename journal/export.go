package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Export writes every recorded round to w as zstd-compressed JSON lines,
// oldest round first.
func (j *Journal) Export(ctx context.Context, w io.Writer) (int, error) {
	rounds, err := j.roundNumbers(ctx)
	if err != nil {
		return 0, err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	n := 0
	for _, round := range rounds {
		r, err := j.Load(ctx, round)
		if err != nil {
			_ = enc.Close()
			return n, err
		}
		b, err := json.Marshal(r)
		if err != nil {
			_ = enc.Close()
			return n, fmt.Errorf("marshal round %d: %w", round, err)
		}
		if _, err := bw.Write(append(b, '\n')); err != nil {
			_ = enc.Close()
			return n, err
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return n, err
	}
	return n, enc.Close()
}

// ReadExport decodes a stream written by Export.
func ReadExport(r io.Reader) ([]Round, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Round
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var rd Round
		if err := json.Unmarshal(sc.Bytes(), &rd); err != nil {
			return out, fmt.Errorf("decode line %d: %w", len(out)+1, err)
		}
		out = append(out, rd)
	}
	return out, sc.Err()
}

func (j *Journal) roundNumbers(ctx context.Context) ([]int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `SELECT round FROM rounds ORDER BY round`)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
