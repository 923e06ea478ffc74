//go:build onnx

package embedding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	ort "github.com/yalue/onnxruntime_go"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

const (
	// maxContentChars bounds input length before tokenization.
	maxContentChars = 8192
	// maxSequenceLength is the model's token window (MiniLM family).
	maxSequenceLength = 128

	dimensionProbe = "dimension probe"
)

var ortInitOnce sync.Once

// ONNXEngine runs a sentence-embedding model through ONNX Runtime. Any
// failure to load the runtime, tokenizer, or model is fatal at construction;
// a non-ready engine refuses every Embed call instead of degrading.
type ONNXEngine struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *wordPieceTokenizer
	modelName string
	ready     bool

	probeOnce sync.Once
	dim       int
}

// NewONNXEngine loads the model and tokenizer at cfg's paths.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if cfg.ModelPath == "" {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "engine.model_path is required for the onnx provider")
	}
	if cfg.TokenizerPath == "" {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "engine.tokenizer_path is required for the onnx provider")
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	var initErr error
	ortInitOnce.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	if initErr != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "onnx runtime init failed", initErr).
			WithSuggestion("install the onnxruntime shared library or set engine.library_path")
	}

	tokenizer, err := loadWordPieceTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "tokenizer load failed", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "onnx session create failed", err)
	}

	name := filepath.Base(cfg.ModelPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &ONNXEngine{
		session:   session,
		tokenizer: tokenizer,
		modelName: name,
		ready:     true,
	}, nil
}

// Embed converts one text to a unit vector.
func (e *ONNXEngine) Embed(text string) ([]float32, error) {
	if !e.ready {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx engine is not ready")
	}
	return e.embed(preprocess(text))
}

// EmbedBatch embeds each text in order. Inference runs sequentially so
// output order always matches input order.
func (e *ONNXEngine) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension embeds a probe string once and caches the resulting length.
func (e *ONNXEngine) Dimension() int {
	e.probeOnce.Do(func() {
		if vec, err := e.Embed(dimensionProbe); err == nil {
			e.dim = len(vec)
		}
	})
	return e.dim
}

// ModelName reports the model file's base name.
func (e *ONNXEngine) ModelName() string {
	return e.modelName
}

// Ready reports whether construction completed.
func (e *ONNXEngine) Ready() bool {
	return e.ready
}

// Close releases the ONNX session.
func (e *ONNXEngine) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func (e *ONNXEngine) embed(text string) ([]float32, error) {
	tokens := e.tokenizer.tokenize(text)

	inputIDs := make([]int64, maxSequenceLength)
	attentionMask := make([]int64, maxSequenceLength)
	tokenTypeIDs := make([]int64, maxSequenceLength)

	inputIDs[0] = int64(e.tokenizer.clsToken)
	attentionMask[0] = 1

	tokenLen := len(tokens)
	if tokenLen > maxSequenceLength-2 { // reserve [CLS] and [SEP]
		tokenLen = maxSequenceLength - 2
	}
	for i := 0; i < tokenLen; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}
	end := tokenLen + 1
	inputIDs[end] = int64(e.tokenizer.sepToken)
	attentionMask[end] = 1

	shape := ort.NewShape(1, int64(maxSequenceLength))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "input_ids tensor create failed", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "attention_mask tensor create failed", err)
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "token_type_ids tensor create failed", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeEngineUnavailable, "onnx inference failed", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	if len(outputs) == 0 || outputs[0] == nil {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx inference returned no outputs")
	}
	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "unexpected onnx output tensor type")
	}

	vec, err := meanPool(tensor.GetData(), tensor.GetShape(), attentionMask)
	if err != nil {
		return nil, err
	}
	return Normalize(vec), nil
}

// meanPool reduces [1, seq, hidden] token states to a [hidden] vector,
// averaging only over attended positions. A pre-pooled [1, hidden] output
// passes through untouched.
func meanPool(data []float32, shape ort.Shape, attentionMask []int64) ([]float32, error) {
	switch len(shape) {
	case 2:
		hidden := int(shape[1])
		if len(data) < hidden {
			return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx output shorter than its declared shape")
		}
		out := make([]float32, hidden)
		copy(out, data[:hidden])
		return out, nil
	case 3:
		if shape[0] != 1 {
			return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx output batch size is not 1")
		}
		seqLen := int(shape[1])
		hidden := int(shape[2])
		out := make([]float32, hidden)
		var attended float32
		for i := 0; i < seqLen && i < len(attentionMask); i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * hidden
			for j := 0; j < hidden; j++ {
				out[j] += data[offset+j]
			}
		}
		if attended == 0 {
			return out, nil
		}
		for j := range out {
			out[j] /= attended
		}
		return out, nil
	default:
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "unexpected onnx output rank")
	}
}

// preprocess trims, collapses internal whitespace runs, and truncates long
// input before tokenization. Truncation backs off to a rune boundary so a
// multi-byte character is never cut in half.
func preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxContentChars {
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// wordPieceTokenizer is a minimal BERT-style WordPiece tokenizer loaded from
// a tokenizer.json vocabulary.
type wordPieceTokenizer struct {
	vocab    map[string]int
	clsToken int
	sepToken int
	unkToken int
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return &wordPieceTokenizer{
		vocab:    parsed.Model.Vocab,
		clsToken: 101, // [CLS]
		sepToken: 102, // [SEP]
		unkToken: 100, // [UNK]
	}, nil
}

func (t *wordPieceTokenizer) tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, sub := range t.wordPieces(word) {
			if id, ok := t.vocab[sub]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, int64(t.unkToken))
			}
		}
	}
	return tokens
}

// wordPieces greedily matches the longest known prefix, then continues with
// "##" continuation pieces.
func (t *wordPieceTokenizer) wordPieces(word string) []string {
	var pieces []string
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				pieces = append(pieces, sub)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			pieces = append(pieces, "[UNK]")
			start++
		}
	}
	return pieces
}
