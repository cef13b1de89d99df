package cv

import (
	"image"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// maxMatchWorkers bounds the goroutines scoring scales of one search. Each
// worker holds two half spectra of the frame size.
const maxMatchWorkers = 4

// correlator holds the per-frame data needed to score any template against
// one frame: half spectra of each channel for the correlation numerator and
// integral images for the window variances. It is read-only once built.
type correlator struct {
	width, height int
	half          int             // width/2+1 columns of a real spectrum
	spectra       [3][]complex128 // height*half, row-major
	sum           [3][]float64    // (width+1)*(height+1) integral of values
	sumSq         [3][]float64    // integral of squared values
}

// workspace is the scratch of one scoring goroutine. gonum transforms keep
// internal buffers, so a workspace is never shared.
type workspace struct {
	width, height, half int
	rowFFT              *fourier.FFT
	colFFT              *fourier.CmplxFFT
	row                 []float64
	col                 []complex128
	spec                []complex128
	product             []complex128
	out                 []float64
}

func newCorrelator(img *image.NRGBA) *correlator {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	c := &correlator{width: w, height: h, half: w/2 + 1}
	ws := c.newWorkspace()

	stride := w + 1
	for ch := 0; ch < 3; ch++ {
		sum := make([]float64, stride*(h+1))
		sumSq := make([]float64, stride*(h+1))
		for y := 0; y < h; y++ {
			var rowSum, rowSq float64
			for x := 0; x < w; x++ {
				v := float64(img.Pix[y*img.Stride+x*4+ch])
				rowSum += v
				rowSq += v * v
				sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
				sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSq
			}
		}

		spectrum := make([]complex128, h*c.half)
		ws.forward(spectrum, h, func(y int, row []float64) {
			for x := range row {
				row[x] = float64(img.Pix[y*img.Stride+x*4+ch])
			}
		})

		c.spectra[ch] = spectrum
		c.sum[ch] = sum
		c.sumSq[ch] = sumSq
	}

	return c
}

func (c *correlator) newWorkspace() *workspace {
	return &workspace{
		width:  c.width,
		height: c.height,
		half:   c.half,
		rowFFT: fourier.NewFFT(c.width),
		colFFT: fourier.NewCmplxFFT(c.height),
		row:    make([]float64, c.width),
		col:    make([]complex128, c.height),
	}
}

// ensureScoring allocates the buffers only scoring needs
func (ws *workspace) ensureScoring() {
	if ws.spec != nil {
		return
	}
	ws.spec = make([]complex128, ws.height*ws.half)
	ws.product = make([]complex128, ws.height*ws.half)
	ws.out = make([]float64, ws.width*ws.height)
}

// forward computes the 2D half spectrum of a width*height real grid whose
// rows at or beyond rows are zero. fill writes row y into a width-long
// buffer.
func (ws *workspace) forward(dst []complex128, rows int, fill func(y int, row []float64)) {
	for y := 0; y < ws.height; y++ {
		out := dst[y*ws.half : (y+1)*ws.half]
		if y >= rows {
			clear(out)
			continue
		}
		fill(y, ws.row)
		ws.rowFFT.Coefficients(out, ws.row)
	}
	ws.columns(dst, false)
}

// inverse turns a half spectrum back into real rows, computing only the
// first rows rows of dst. src is overwritten.
func (ws *workspace) inverse(dst []float64, src []complex128, rows int) {
	ws.columns(src, true)
	for y := 0; y < rows; y++ {
		ws.rowFFT.Sequence(dst[y*ws.width:(y+1)*ws.width], src[y*ws.half:(y+1)*ws.half])
	}
}

func (ws *workspace) columns(data []complex128, inverse bool) {
	for x := 0; x < ws.half; x++ {
		for y := 0; y < ws.height; y++ {
			ws.col[y] = data[y*ws.half+x]
		}
		if inverse {
			ws.colFFT.Sequence(ws.col, ws.col)
		} else {
			ws.colFFT.Coefficients(ws.col, ws.col)
		}
		for y := 0; y < ws.height; y++ {
			data[y*ws.half+x] = ws.col[y]
		}
	}
}

// placement is the best score of one template size and where it occurred
type placement struct {
	score float64
	loc   image.Point
}

// scoreAll scores every template produced by resize, one per size, using up
// to maxMatchWorkers goroutines. Results keep the order of sizes.
func (c *correlator) scoreAll(sizes []image.Point, resize func(size image.Point) *image.NRGBA) []placement {
	results := make([]placement, len(sizes))
	workers := min(runtime.GOMAXPROCS(0), maxMatchWorkers, len(sizes))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws := c.newWorkspace()
			for j := range jobs {
				results[j] = c.score(ws, resize(sizes[j]))
			}
		}()
	}

	for j := range sizes {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	return results
}

// score returns the highest correlation of tmpl over every valid placement,
// scanning rows top to bottom and keeping the first maximum.
func (c *correlator) score(ws *workspace, tmpl *image.NRGBA) placement {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	n := float64(tw * th)

	// Zero-mean template per channel. Because it sums to zero, the window
	// mean drops out of the numerator.
	var tmplVar float64
	var centered [3][]float64
	for ch := 0; ch < 3; ch++ {
		values := make([]float64, tw*th)
		var mean float64
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				v := float64(tmpl.Pix[y*tmpl.Stride+x*4+ch])
				values[y*tw+x] = v
				mean += v
			}
		}
		mean /= n
		for i := range values {
			values[i] -= mean
			tmplVar += values[i] * values[i]
		}
		centered[ch] = values
	}

	if tmplVar <= flatVariance*n {
		return placement{}
	}

	ws.ensureScoring()
	clear(ws.product)
	for ch := 0; ch < 3; ch++ {
		values := centered[ch]
		ws.forward(ws.spec, th, func(y int, row []float64) {
			copy(row, values[y*tw:(y+1)*tw])
			clear(row[tw:])
		})

		frame := c.spectra[ch]
		for i, t := range ws.spec {
			ws.product[i] += frame[i] * cmplx.Conj(t)
		}
	}

	validRows := c.height - th + 1
	ws.inverse(ws.out, ws.product, validRows)

	norm := 1 / float64(c.width*c.height)
	stride := c.width + 1
	best := placement{score: math.Inf(-1)}

	for y := 0; y < validRows; y++ {
		for x := 0; x <= c.width-tw; x++ {
			var windowVar float64
			for ch := 0; ch < 3; ch++ {
				s := boxSum(c.sum[ch], stride, x, y, tw, th)
				s2 := boxSum(c.sumSq[ch], stride, x, y, tw, th)
				windowVar += s2 - s*s/n
			}

			score := 0.0
			if windowVar > flatVariance*n {
				score = ws.out[y*c.width+x] * norm / math.Sqrt(windowVar*tmplVar)
				score = math.Max(-1, math.Min(1, score))
			}

			if score > best.score {
				best = placement{score: score, loc: image.Point{X: x, Y: y}}
			}
		}
	}

	return best
}

func boxSum(integral []float64, stride, x, y, w, h int) float64 {
	return integral[(y+h)*stride+x+w] - integral[y*stride+x+w] - integral[(y+h)*stride+x] + integral[y*stride+x]
}
