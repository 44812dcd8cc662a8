// Package awsocr implements the Text Extraction Stage's OCR port against
// AWS Textract's synchronous DetectDocumentText API. No Textract client
// lives in the dependency set, so the call is built as a SigV4-signed JSON
// POST using the same aws-sdk-go-v2 credential/region plumbing the bedrock
// LLM backend shares (internal/awsconfig), following the request/response
// shape of Textract's detect_document_text used directly in the original
// Python OCR service.
package awsocr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	v4signer "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/ocr"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
	sharedhttp "github.com/merchantiq/docverify/pkg/shared/http"
)

const (
	textractTarget  = "Textract.DetectDocumentText"
	textractService = "textract"
)

// Client implements ocr.Port against Textract's synchronous API.
type Client struct {
	httpClient *http.Client
	cfg        awssdk.Config
	endpoint   string
	log        *zap.Logger
}

// NewClient builds a Client from an already-resolved aws.Config (see
// internal/awsconfig, shared with pkg/llm/bedrock).
func NewClient(cfg awssdk.Config, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		httpClient: sharedhttp.NewClient(sharedhttp.OCRClientConfig(timeout)),
		cfg:        cfg,
		endpoint:   fmt.Sprintf("https://textract.%s.amazonaws.com/", cfg.Region),
		log:        log,
	}
}

type detectDocumentTextRequest struct {
	Document document `json:"Document"`
}

type document struct {
	Bytes []byte `json:"Bytes"`
}

type detectDocumentTextResponse struct {
	Blocks       []block `json:"Blocks"`
	ErrorMessage string  `json:"Message"`
}

type block struct {
	BlockType  string   `json:"BlockType"`
	Text       string   `json:"Text"`
	Confidence float64  `json:"Confidence"`
	Page       int      `json:"Page"`
	Geometry   geometry `json:"Geometry"`
}

type geometry struct {
	BoundingBox boundingBox `json:"BoundingBox"`
}

type boundingBox struct {
	Top    float64 `json:"Top"`
	Left   float64 `json:"Left"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// DetectBlocks submits documentBytes to Textract's synchronous API. A
// Textract "UnsupportedDocumentException" is surfaced as
// ocr.ErrUnsupportedFormat so the Text Extraction Stage can fall back to
// per-page rasterization.
func (c *Client) DetectBlocks(ctx context.Context, documentBytes []byte) ([]ocr.Block, error) {
	reqBody, err := json.Marshal(detectDocumentTextRequest{Document: document{Bytes: documentBytes}})
	if err != nil {
		return nil, sharederrors.FailedToWithDetails("marshal textract request", "awsocr", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, sharederrors.FailedToWithDetails("build textract request", "awsocr", "", err)
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", textractTarget)

	if err := c.sign(ctx, req, reqBody); err != nil {
		return nil, sharederrors.FailedToWithDetails("sign textract request", "awsocr", "", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sharederrors.NetworkError("call textract", c.endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, sharederrors.FailedToWithDetails("read textract response", "awsocr", "", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		var parsed detectDocumentTextResponse
		_ = json.Unmarshal(respBody, &parsed)
		if bytes.Contains(respBody, []byte("UnsupportedDocumentException")) {
			return nil, ocr.ErrUnsupportedFormat
		}
		c.log.Warn("textract rejected document", zap.String("message", parsed.ErrorMessage))
		return nil, sharederrors.FailedToWithDetails("call textract", "awsocr", parsed.ErrorMessage, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, sharederrors.FailedToWithDetails("call textract", "awsocr", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var parsed detectDocumentTextResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, sharederrors.ParseError("textract response", "json", err)
	}

	return toBlocks(parsed.Blocks), nil
}

func toBlocks(raw []block) []ocr.Block {
	var blocks []ocr.Block
	for _, b := range raw {
		if b.BlockType != "LINE" {
			continue
		}
		page := b.Page
		if page == 0 {
			page = 1
		}
		blocks = append(blocks, ocr.Block{
			Text:       b.Text,
			Confidence: b.Confidence,
			Page:       page,
			BBox: ocr.BoundingBox{
				Top:    b.Geometry.BoundingBox.Top,
				Left:   b.Geometry.BoundingBox.Left,
				Width:  b.Geometry.BoundingBox.Width,
				Height: b.Geometry.BoundingBox.Height,
			},
		})
	}
	return blocks
}

func (c *Client) sign(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := c.cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(body)
	signer := v4signer.NewSigner()
	return signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), textractService, c.cfg.Region, time.Now())
}
