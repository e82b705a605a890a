package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/config"
)

// ErrContentStoreDisabled is returned when no Pinata credentials are set
var ErrContentStoreDisabled = errors.New("content store is not configured")

// ContentStore pins documents and metadata and returns their CID
type ContentStore interface {
	UploadFile(ctx context.Context, name string, data []byte) (string, error)
	UploadJSON(ctx context.Context, name string, v interface{}) (string, error)
}

// MockCID derives a stable placeholder CID from the payload
func MockCID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "QmMock" + hex.EncodeToString(sum[:])[:40]
}

// IPFSService pins content through the Pinata API
type IPFSService struct {
	baseURL string
	jwt     string
	client  *http.Client
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewIPFSService creates a Pinata client from config
func NewIPFSService(cfg config.IPFSConfig) *IPFSService {
	if cfg.PinataJWT == "" {
		log.Warn().Msg("PINATA_JWT is missing, uploads will use mock CIDs")
	}

	return &IPFSService{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		jwt:     cfg.PinataJWT,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured reports whether uploads reach Pinata
func (s *IPFSService) Configured() bool {
	return s.jwt != ""
}

// UploadFile pins raw bytes with pinFileToIPFS
func (s *IPFSService) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	if !s.Configured() {
		return "", ErrContentStoreDisabled
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}

	metadata, _ := json.Marshal(map[string]string{"name": name})
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return s.pin(ctx, "/pinning/pinFileToIPFS", writer.FormDataContentType(), &body)
}

// UploadJSON pins a JSON document with pinJSONToIPFS
func (s *IPFSService) UploadJSON(ctx context.Context, name string, v interface{}) (string, error) {
	if !s.Configured() {
		return "", ErrContentStoreDisabled
	}

	payload, err := json.Marshal(map[string]interface{}{
		"pinataContent":  v,
		"pinataMetadata": map[string]string{"name": name},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return s.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(payload))
}

func (s *IPFSService) pin(ctx context.Context, endpoint, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.jwt)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var pinned pinResponse
	if err := json.Unmarshal(respBody, &pinned); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", errors.New("pinata response has no IpfsHash")
	}

	return pinned.IpfsHash, nil
}
