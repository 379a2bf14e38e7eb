//go:build onnx

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package onnx

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// maxSequenceLength is the MiniLM input window, including [CLS] and [SEP].
const maxSequenceLength = 128

// Config configures the local embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the HuggingFace tokenizer.json.
	TokenizerPath string

	// Dimensions is the embedding vector size (384 for all-MiniLM-L6-v2).
	Dimensions int
}

// Embedder runs a MiniLM-style sentence-embedding model locally through
// ONNX Runtime.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *wordPieceTokenizer
	dimensions int
}

// New initialises the ONNX runtime, loads the tokenizer, and opens an
// inference session. Fails before any query work if the runtime shared
// library cannot be located.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, recallerr.New(recallerr.CodeEmbedRuntimeUnavailable, "onnx: model path is required")
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 384
	}

	libPath, err := ResolveRuntimeLibrary()
	if err != nil {
		return nil, err
	}

	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, recallerr.Wrapf(err, recallerr.CodeEmbedRuntimeUnavailable, "initialising ONNX runtime from %s", libPath)
		}
	}

	tokenizer, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, recallerr.Wrapf(err, recallerr.CodeEmbedRuntimeUnavailable, "loading tokenizer %s", cfg.TokenizerPath)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, recallerr.Wrapf(err, recallerr.CodeEmbedRuntimeUnavailable, "opening ONNX session for %s", cfg.ModelPath)
	}

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text to an embedding vector via tokenize, infer, mean-pool
// over attended positions, and L2 normalize.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := e.tokenizer.tokenize(text)

	inputIDs := make([]int64, maxSequenceLength)
	attentionMask := make([]int64, maxSequenceLength)
	tokenTypeIDs := make([]int64, maxSequenceLength)

	inputIDs[0] = int64(e.tokenizer.clsID)
	attentionMask[0] = 1

	tokenLen := len(tokens)
	if tokenLen > maxSequenceLength-2 {
		tokenLen = maxSequenceLength - 2
	}
	for i := 0; i < tokenLen; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}

	inputIDs[tokenLen+1] = int64(e.tokenizer.sepID)
	attentionMask[tokenLen+1] = 1

	shape := ort.NewShape(1, maxSequenceLength)

	inputTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeEmbedRequestFailure, "creating input_ids tensor: %w", err)
	}
	defer inputTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeEmbedRequestFailure, "creating attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeEmbedRequestFailure, "creating token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, recallerr.Errorf(recallerr.CodeEmbedRequestFailure, "ONNX inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, recallerr.New(recallerr.CodeEmbedResponseInvalid, "unexpected output tensor type")
	}

	return e.pool(hidden, attentionMask)
}

// pool mean-pools the hidden states over attended positions. Models that
// export a pooled [1, dims] output are accepted as-is.
func (e *Embedder) pool(hidden *ort.Tensor[float32], attentionMask []int64) ([]float32, error) {
	data := hidden.GetData()
	shape := hidden.GetShape()

	switch len(shape) {
	case 2:
		if len(data) < e.dimensions {
			return nil, recallerr.Errorf(recallerr.CodeEmbedResponseInvalid,
				"output dimension mismatch: got %d, want %d", len(data), e.dimensions)
		}
		vec := make([]float32, e.dimensions)
		copy(vec, data[:e.dimensions])
		return normalize(vec), nil

	case 3:
		seqLen, hiddenSize := int(shape[1]), int(shape[2])
		if shape[0] != 1 || hiddenSize != e.dimensions {
			return nil, recallerr.Errorf(recallerr.CodeEmbedResponseInvalid,
				"unexpected output shape %v for %d dimensions", shape, e.dimensions)
		}

		vec := make([]float32, hiddenSize)
		var attended float32
		for i := 0; i < seqLen; i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * hiddenSize
			for j := 0; j < hiddenSize; j++ {
				vec[j] += data[offset+j]
			}
		}
		if attended == 0 {
			return nil, recallerr.New(recallerr.CodeEmbedResponseInvalid, "no attended tokens to pool")
		}
		for j := range vec {
			vec[j] /= attended
		}
		return normalize(vec), nil

	default:
		return nil, recallerr.Errorf(recallerr.CodeEmbedResponseInvalid, "unexpected output shape: %v", shape)
	}
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases the inference session.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}

// wordPieceTokenizer is a minimal BERT WordPiece tokenizer fed from a
// HuggingFace tokenizer.json vocabulary.
type wordPieceTokenizer struct {
	vocab map[string]int
	clsID int
	sepID int
	unkID int
}

func loadTokenizer(path string) (*wordPieceTokenizer, error) {
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

	t := &wordPieceTokenizer{
		vocab: parsed.Model.Vocab,
		clsID: 101,
		sepID: 102,
		unkID: 100,
	}

	// Standard BERT special-token IDs unless the vocab says otherwise.
	if id, ok := t.vocab["[CLS]"]; ok {
		t.clsID = id
	}
	if id, ok := t.vocab["[SEP]"]; ok {
		t.sepID = id
	}
	if id, ok := t.vocab["[UNK]"]; ok {
		t.unkID = id
	}

	return t, nil
}

func (t *wordPieceTokenizer) tokenize(text string) []int64 {
	var ids []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}

		if id, ok := t.vocab[word]; ok {
			ids = append(ids, int64(id))
			continue
		}

		for _, piece := range t.wordPieces(word) {
			if id, ok := t.vocab[piece]; ok {
				ids = append(ids, int64(id))
			} else {
				ids = append(ids, int64(t.unkID))
			}
		}
	}
	return ids
}

// wordPieces splits a word into longest-prefix vocabulary pieces, with the
// "##" continuation marker after the first piece.
func (t *wordPieceTokenizer) wordPieces(word string) []string {
	var pieces []string
	start := 0

	for start < len(word) {
		end := len(word)
		matched := false

		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := t.vocab[piece]; ok {
				pieces = append(pieces, piece)
				start = end
				matched = true
				break
			}
			end--
		}

		if !matched {
			pieces = append(pieces, "[UNK]")
			start++
		}
	}

	return pieces
}
