package bufpool

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPicksSmallestTier(t *testing.T) {
	p := New(16, 64)

	buf := p.Get(10)
	assert.Len(t, buf, 10)
	assert.Equal(t, 16, cap(buf))

	buf = p.Get(17)
	assert.Len(t, buf, 17)
	assert.Equal(t, 64, cap(buf))

	buf = p.Get(65)
	assert.Len(t, buf, 65)
	assert.Equal(t, 65, cap(buf), "oversized requests are allocated exactly")
}

func TestPutRestoresFullLength(t *testing.T) {
	p := New(16)
	buf := p.Get(3)
	p.Put(buf)

	again := p.Get(16)
	assert.Len(t, again, 16)
}

func TestPutDropsForeignBuffers(t *testing.T) {
	p := New(16)
	p.Put(make([]byte, 20))
	p.Put(nil)
	assert.Equal(t, 16, cap(p.Get(1)))
}

func TestDefaultTiers(t *testing.T) {
	assert.Equal(t, SmallSize, cap(Get(1)))
	assert.Equal(t, CopySize, cap(Get(SmallSize+1)))
	assert.Equal(t, LargeSize, cap(Get(CopySize+1)))
}

// onlyReader hides WriterTo so Copy goes through the pooled buffer.
type onlyReader struct{ r *strings.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func TestCopy(t *testing.T) {
	src := strings.Repeat("telebox", 20000)
	var dst bytes.Buffer

	n, err := Copy(onlyWriter{&dst}, onlyReader{strings.NewReader(src)})
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.Equal(t, src, dst.String())
}

type onlyWriter struct{ w *bytes.Buffer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

func TestConcurrentUse(t *testing.T) {
	p := New(64)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := p.Get(64)
				for k := range buf {
					buf[k] = b
				}
				for _, v := range buf {
					if v != b {
						t.Errorf("buffer shared between goroutines")
						return
					}
				}
				p.Put(buf)
			}
		}(byte(i))
	}
	wg.Wait()
}
