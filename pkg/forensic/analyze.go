package forensic

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"

	sharedmath "github.com/merchantiq/docverify/pkg/shared/math"
)

// Signals holds every raw measurement the Forensic Stage's pure scoring
// functions need, derived from a single decoded image.
type Signals struct {
	IsPDF bool

	ELAMeanDifference float64

	JPEGMeanBlockVariance float64

	CopyMoveConfidence float64
	BGRChannelMeanVar  float64
	MaxDim             int

	PDFMetadata PDFMetadataFlags

	ResolutionRegionEnergies []float64

	ColorHistogramIssues       int
	BGRChannelMeanStdDev       float64

	NoiseBlockVariances []float64

	ByteSize   int64
	MD5Hash    string
	SHA256Hash string

	HasSoftwareTag bool
	HasModifyDate  bool
	HasCreateDate  bool
	EXIFTags       map[string]string
}

// Hashes computes the byte size and MD5/SHA-256 digests of raw.
func Hashes(raw []byte) (size int64, md5Hex, sha256Hex string) {
	md5Sum := md5.Sum(raw) //nolint:gosec // forensic fingerprint, not a security boundary
	sha256Sum := sha256.Sum256(raw)
	return int64(len(raw)), hex.EncodeToString(md5Sum[:]), hex.EncodeToString(sha256Sum[:])
}

// AnalyzeImage decodes raw as an image and computes every non-PDF-specific
// signal the forensic checks need. Unreadable image bytes return an error;
// the Forensic Stage treats that as the "unrecoverable blob read failure"
// that saturates forensic_penalty to 15.
func AnalyzeImage(raw []byte) (Signals, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Signals{}, err
	}

	size, md5Hex, sha256Hex := Hashes(raw)
	bounds := img.Bounds()
	maxDim := bounds.Dx()
	if bounds.Dy() > maxDim {
		maxDim = bounds.Dy()
	}

	sig := Signals{
		ByteSize:   size,
		MD5Hash:    md5Hex,
		SHA256Hash: sha256Hex,
		MaxDim:     maxDim,
	}

	sig.ELAMeanDifference = errorLevelAnalysis(img)
	sig.JPEGMeanBlockVariance = blockVariance(img, 8, 4)
	sig.CopyMoveConfidence = copyMoveConfidence(img)

	bMean, gMean, rMean := channelMeans(img)
	sig.BGRChannelMeanVar = sharedmath.Variance([]float64{bMean, gMean, rMean})
	sig.BGRChannelMeanStdDev = sharedmath.StandardDeviation([]float64{bMean, gMean, rMean})

	sig.ResolutionRegionEnergies = regionFFTEnergies(img, 5)
	sig.ColorHistogramIssues = colorHistogramIssues(img, sig.BGRChannelMeanStdDev < 10)

	blockSize := 64
	if bounds.Dy()/8 < blockSize {
		blockSize = bounds.Dy() / 8
	}
	if bounds.Dx()/8 < blockSize {
		blockSize = bounds.Dx() / 8
	}
	if blockSize < 1 {
		blockSize = 1
	}
	sig.NoiseBlockVariances = laplacianBlockVariances(img, blockSize)

	return sig, nil
}

// errorLevelAnalysis grayscale-converts img, re-encodes at JPEG quality 90,
// and returns the mean absolute per-pixel luminance difference.
func errorLevelAnalysis(img image.Image) float64 {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: 90}); err != nil {
		return 0
	}
	reencoded, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return 0
	}

	var total float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			l1 := float64(gray.GrayAt(x, y).Y)
			l2 := grayValue(reencoded.At(x-bounds.Min.X+reencoded.Bounds().Min.X, y-bounds.Min.Y+reencoded.Bounds().Min.Y))
			total += math.Abs(l1 - l2)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func grayValue(c color.Color) float64 {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return float64(gray.Y)
}

// blockVariance samples stride-apart blockSize x blockSize blocks (every
// `stride`th block) and returns the mean of their pixel-luminance variance.
func blockVariance(img image.Image, blockSize, stride int) float64 {
	bounds := img.Bounds()
	var variances []float64
	blockIndex := 0
	for y := bounds.Min.Y; y+blockSize <= bounds.Max.Y; y += blockSize {
		for x := bounds.Min.X; x+blockSize <= bounds.Max.X; x += blockSize {
			if blockIndex%stride == 0 {
				variances = append(variances, blockPixelVariance(img, x, y, blockSize))
			}
			blockIndex++
		}
	}
	return sharedmath.Mean(variances)
}

func blockPixelVariance(img image.Image, x0, y0, size int) float64 {
	var values []float64
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			values = append(values, grayValue(img.At(x, y)))
		}
	}
	return sharedmath.Variance(values)
}

// copyMoveConfidence tiles img into 32x32 blocks (capped at 500), samples
// roughly 100 pairs at a stride derived from the block count, and returns
// the percentage of sampled pairs - separated by more than twice the block
// size along either axis - whose structural similarity exceeds 0.95.
func copyMoveConfidence(img image.Image) float64 {
	const blockSize = 32
	bounds := img.Bounds()
	scale := 1.0
	maxDim := bounds.Dx()
	if bounds.Dy() > maxDim {
		maxDim = bounds.Dy()
	}
	if maxDim > 2000 {
		scale = 2000.0 / float64(maxDim)
	}

	var blocks [][3]int // x, y, index
	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	for y := 0; y+blockSize <= h; y += blockSize {
		for x := 0; x+blockSize <= w; x += blockSize {
			blocks = append(blocks, [3]int{x, y, len(blocks)})
			if len(blocks) >= 500 {
				break
			}
		}
		if len(blocks) >= 500 {
			break
		}
	}
	if len(blocks) < 2 {
		return 0
	}

	stride := len(blocks) / 100
	if stride < 1 {
		stride = 1
	}

	var total, similar int
	for i := 0; i < len(blocks); i += stride {
		for j := i + stride; j < len(blocks); j += stride {
			bi, bj := blocks[i], blocks[j]
			if absInt(bi[0]-bj[0]) <= 2*blockSize && absInt(bi[1]-bj[1]) <= 2*blockSize {
				continue
			}
			total++
			sim := blockSimilarity(img, bi[0], bi[1], bj[0], bj[1], blockSize, scale)
			if sim > 0.95 {
				similar++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(similar) / float64(total) * 100
}

func blockSimilarity(img image.Image, x1, y1, x2, y2, size int, scale float64) float64 {
	var a, b []float64
	bounds := img.Bounds()
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			ax := bounds.Min.X + int(float64(x1+dx)/scale)
			ay := bounds.Min.Y + int(float64(y1+dy)/scale)
			bx := bounds.Min.X + int(float64(x2+dx)/scale)
			by := bounds.Min.Y + int(float64(y2+dy)/scale)
			if ax >= bounds.Max.X || ay >= bounds.Max.Y || bx >= bounds.Max.X || by >= bounds.Max.Y {
				continue
			}
			a = append(a, grayValue(img.At(ax, ay)))
			b = append(b, grayValue(img.At(bx, by)))
		}
	}
	return sharedmath.CosineSimilarity(a, b)
}

func channelMeans(img image.Image) (bMean, gMean, rMean float64) {
	bounds := img.Bounds()
	var bTotal, gTotal, rTotal float64
	var count float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rTotal += float64(r >> 8)
			gTotal += float64(g >> 8)
			bTotal += float64(b >> 8)
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	return bTotal / count, gTotal / count, rTotal / count
}

// regionFFTEnergies partitions img into n equal horizontal regions and
// returns, per region, a high-frequency-energy proxy: the sum of squared
// magnitudes of the region's 1-D row-wise DFT coefficients above the DC
// term, averaged per row.
func regionFFTEnergies(img image.Image, n int) []float64 {
	bounds := img.Bounds()
	height := bounds.Dy()
	if height == 0 || n <= 0 {
		return nil
	}
	regionHeight := height / n
	if regionHeight < 1 {
		regionHeight = 1
	}

	energies := make([]float64, 0, n)
	for r := 0; r < n; r++ {
		y0 := bounds.Min.Y + r*regionHeight
		y1 := y0 + regionHeight
		if y1 > bounds.Max.Y {
			y1 = bounds.Max.Y
		}
		if y0 >= y1 {
			energies = append(energies, 0)
			continue
		}
		energies = append(energies, regionHighFrequencyEnergy(img, bounds.Min.X, bounds.Max.X, y0, y1))
	}
	return energies
}

func regionHighFrequencyEnergy(img image.Image, x0, x1, y0, y1 int) float64 {
	width := x1 - x0
	if width <= 1 {
		return 0
	}
	var total float64
	var rows int
	for y := y0; y < y1; y++ {
		row := make([]float64, width)
		for x := x0; x < x1; x++ {
			row[x-x0] = grayValue(img.At(x, y))
		}
		total += rowHighFrequencyEnergy(row)
		rows++
	}
	if rows == 0 {
		return 0
	}
	return total / float64(rows)
}

// rowHighFrequencyEnergy computes a naive DFT magnitude-squared sum over
// the upper half of the frequency spectrum (a proxy for high-frequency
// detail; full 2-D FFT libraries are not part of this dependency stack).
func rowHighFrequencyEnergy(row []float64) float64 {
	n := len(row)
	if n < 2 {
		return 0
	}
	var energy float64
	for k := n / 2; k < n; k++ {
		var re, im float64
		for x, v := range row {
			theta := -2 * math.Pi * float64(k) * float64(x) / float64(n)
			re += v * math.Cos(theta)
			im += v * math.Sin(theta)
		}
		energy += (re*re + im*im) / float64(n)
	}
	return energy
}

// colorHistogramIssues builds per-channel histograms and counts spikes and
// severe color gaps, capped at 2 issues.
func colorHistogramIssues(img image.Image, grayscaleLike bool) int {
	bounds := img.Bounds()
	histR := make([]int, 256)
	histG := make([]int, 256)
	histB := make([]int, 256)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			histR[r>>8]++
			histG[g>>8]++
			histB[b>>8]++
		}
	}

	issues := 0
	spikeThreshold := 8.0
	if grayscaleLike {
		spikeThreshold = 15.0
	}
	if hasSpike(histR, spikeThreshold) || hasSpike(histG, spikeThreshold) || hasSpike(histB, spikeThreshold) {
		issues++
	}
	if !grayscaleLike && hasSevereGap(histR) {
		issues++
	}
	if issues > 2 {
		issues = 2
	}
	return issues
}

func hasSpike(hist []int, ratioThreshold float64) bool {
	var total, max float64
	for _, v := range hist {
		total += float64(v)
		if float64(v) > max {
			max = float64(v)
		}
	}
	mean := total / float64(len(hist))
	if mean == 0 {
		return false
	}
	return max/mean > ratioThreshold
}

func hasSevereGap(hist []int) bool {
	nonZero := 0
	for _, v := range hist {
		if v > 0 {
			nonZero++
		}
	}
	zeroRatio := 1 - float64(nonZero)/float64(len(hist))
	return nonZero < 15 && zeroRatio > 0.85
}

// laplacianBlockVariances splits img into blockSize x blockSize blocks and
// returns, per block, the variance of a discrete Laplacian approximation
// (a noise-texture proxy).
func laplacianBlockVariances(img image.Image, blockSize int) []float64 {
	bounds := img.Bounds()
	var variances []float64
	for y := bounds.Min.Y; y+blockSize <= bounds.Max.Y; y += blockSize {
		for x := bounds.Min.X; x+blockSize <= bounds.Max.X; x += blockSize {
			variances = append(variances, blockLaplacianVariance(img, x, y, blockSize))
		}
	}
	return variances
}

func blockLaplacianVariance(img image.Image, x0, y0, size int) float64 {
	bounds := img.Bounds()
	var values []float64
	for y := y0 + 1; y < y0+size-1 && y < bounds.Max.Y-1; y++ {
		for x := x0 + 1; x < x0+size-1 && x < bounds.Max.X-1; x++ {
			center := grayValue(img.At(x, y))
			up := grayValue(img.At(x, y-1))
			down := grayValue(img.At(x, y+1))
			left := grayValue(img.At(x-1, y))
			right := grayValue(img.At(x+1, y))
			laplacian := up + down + left + right - 4*center
			values = append(values, laplacian)
		}
	}
	return sharedmath.Variance(values)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
