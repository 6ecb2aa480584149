// Package embedder wraps a process-wide, lazily-initialized CLIP ONNX
// vision model. Model construction is mutex-guarded so the first concurrent
// caller pays the init cost while everyone else waits on the same init, not
// a second one. The model file must already exist at the configured path.
package embedder

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/deco-run/deco-core/internal/apperr"
)

// preprocessConcurrency bounds how many images are decoded and resized at
// once ahead of inference. Decode/resize is the only part of a batch that
// parallelizes safely — the ONNX session below has a fixed batch-1 input
// tensor that inference mutates in place, so Run() calls stay strictly
// sequential.
const preprocessConcurrency = 4

// Dimensions is the fixed output width of the bundled CLIP ViT-B/32 vision
// tower. Every stored embedding carries this as its dimensions count.
const Dimensions = 512

const inputSize = 224

// imageMean and imageStd are the CLIP preprocessing constants (RGB order).
var (
	imageMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	imageStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Embedder is a process-wide CLIP image model. The zero value is usable;
// the underlying ONNX session is created on first Warmup/Embed call.
type Embedder struct {
	modelPath string

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// New constructs an Embedder bound to an ONNX model file on disk. The model
// itself is not loaded until the first Warmup or Embed call.
func New(modelPath string) *Embedder {
	return &Embedder{modelPath: modelPath}
}

// Warmup force-initializes the model without embedding anything. Call once
// at process start to amortize first-request latency onto startup instead
// of the first real request.
func (e *Embedder) Warmup(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureSessionLocked()
}

// ensureSessionLocked initializes the ONNX environment and session if not
// already done. Caller must hold e.mu.
func (e *Embedder) ensureSessionLocked() error {
	if e.session != nil {
		return nil
	}

	if _, err := os.Stat(e.modelPath); err != nil {
		return apperr.Newf(apperr.CategoryInference, "CLIP model not found at %q: %v", e.modelPath, err)
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return apperr.Newf(apperr.CategoryInference, "initialize onnxruntime: %v", err)
		}
	}

	inputShape := ort.NewShape(1, 3, inputSize, inputSize)
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return apperr.Newf(apperr.CategoryInference, "allocate input tensor: %v", err)
	}

	outputShape := ort.NewShape(1, Dimensions)
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return apperr.Newf(apperr.CategoryInference, "allocate output tensor: %v", err)
	}

	session, err := ort.NewAdvancedSession(e.modelPath,
		[]string{"pixel_values"}, []string{"image_embeds"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return apperr.Newf(apperr.CategoryInference, "create onnx session: %v", err)
	}

	e.input = input
	e.output = output
	e.session = session
	return nil
}

// Close releases the ONNX session and tensors. Safe to call on a never-used
// Embedder.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.input != nil {
		e.input.Destroy()
		e.input = nil
	}
	if e.output != nil {
		e.output.Destroy()
		e.output = nil
	}
	return nil
}

// Embed runs batched CLIP inference over the image files at paths, one
// forward pass per image (the ONNX session is reused across the batch;
// batchSize is accepted as a provider hint for callers that chunk their own
// paths slice, not a correctness contract — inference here is always
// single-image per session.Run call since the bound session has a
// fixed batch-1 input shape).
func (e *Embedder) Embed(ctx context.Context, paths []string, batchSize int) ([][]float32, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	pixelBatches := make([][]float32, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preprocessConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			pixels, err := loadAndPreprocess(path)
			if err != nil {
				return apperr.Newf(apperr.CategoryInference, "preprocess %q: %v", path, err)
			}
			pixelBatches[i] = pixels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureSessionLocked(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(paths))
	for i, pixels := range pixelBatches {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		copy(e.input.GetData(), pixels)
		if err := e.session.Run(); err != nil {
			return nil, apperr.Newf(apperr.CategoryInference, "run inference on %q: %v", paths[i], err)
		}

		out := e.output.GetData()
		vector := make([]float32, len(out))
		copy(vector, out)
		vectors[i] = normalize(vector)
	}

	return vectors, nil
}

// loadAndPreprocess decodes an image file, resizes it to inputSize x
// inputSize with bilinear interpolation, and returns CHW-ordered,
// mean/std-normalized float32 pixel data matching CLIP's expected input
// layout.
func loadAndPreprocess(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, inputSize, inputSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	pixels := make([]float32, 3*inputSize*inputSize)
	plane := inputSize * inputSize
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			idx := y*inputSize + x
			pixels[0*plane+idx] = (float32(r>>8)/255 - imageMean[0]) / imageStd[0]
			pixels[1*plane+idx] = (float32(g>>8)/255 - imageMean[1]) / imageStd[1]
			pixels[2*plane+idx] = (float32(b>>8)/255 - imageMean[2]) / imageStd[2]
		}
	}
	return pixels, nil
}

// normalize L2-normalizes vector in place so downstream cosine similarity
// reduces to a dot product between stored embeddings.
func normalize(vector []float32) []float32 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}
