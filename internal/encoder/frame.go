package encoder

import (
	"fmt"
	"image"
	"runtime"
	"sync"
)

// BGR24Size returns the byte length of one packed BGR24 frame
func BGR24Size(width, height int) int {
	return width * height * 3
}

// ConvertToBGR24 packs img into dst as 3-byte B, G, R pixels, row-major with
// no padding. dst must hold BGR24Size bytes. Rows are split across CPUs.
func ConvertToBGR24(img *image.RGBA, dst []byte) error {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if len(dst) != BGR24Size(width, height) {
		return fmt.Errorf("BGR24 buffer size mismatch: expected %d, got %d", BGR24Size(width, height), len(dst))
	}

	numWorkers := runtime.NumCPU()
	rowsPerWorker := height / numWorkers
	if rowsPerWorker < 1 {
		rowsPerWorker = 1
		numWorkers = height
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if worker == numWorkers-1 {
			endY = height
		}

		go func(startY, endY int) {
			defer wg.Done()

			for y := startY; y < endY; y++ {
				src := img.Pix[y*img.Stride : y*img.Stride+width*4]
				out := dst[y*width*3 : (y+1)*width*3]

				for x := 0; x < width; x++ {
					out[x*3] = src[x*4+2]
					out[x*3+1] = src[x*4+1]
					out[x*3+2] = src[x*4]
				}
			}
		}(startY, endY)
	}

	wg.Wait()
	return nil
}
