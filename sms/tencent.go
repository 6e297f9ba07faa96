package sms

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ooiai/neocrates/json"
)

// Tencent SMS API constants (TC3-HMAC-SHA256 signing).
const (
	tencentHost        = "sms.tencentcloudapi.com"
	tencentVersion     = "2021-01-11"
	tencentService     = "sms"
	tencentContentType = "application/json; charset=utf-8"
)

// Region 腾讯云地域
type Region string

const (
	RegionBeijing   Region = "ap-beijing"
	RegionNanjing   Region = "ap-nanjing"
	RegionGuangzhou Region = "ap-guangzhou"
)

// Tencent 腾讯云短信客户端
type Tencent struct {
	secretID   string
	secretKey  string
	smsAppID   string
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// TencentOption configures the client.
type TencentOption func(*Tencent)

// WithTencentEndpoint overrides the API endpoint. Used by tests.
func WithTencentEndpoint(endpoint string) TencentOption {
	return func(t *Tencent) {
		t.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithTencentHTTPClient overrides the HTTP client.
func WithTencentHTTPClient(client *http.Client) TencentOption {
	return func(t *Tencent) {
		t.httpClient = client
	}
}

// NewTencent creates a client with the given credentials and SMS app id.
func NewTencent(secretID, secretKey, smsAppID string, opts ...TencentOption) *Tencent {
	t := &Tencent{
		secretID:   secretID,
		secretKey:  secretKey,
		smsAppID:   smsAppID,
		endpoint:   "https://" + tencentHost,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type sendSmsRequest struct {
	PhoneNumberSet   []string `json:"PhoneNumberSet"`
	SmsSdkAppId      string   `json:"SmsSdkAppId"`
	SignName         string   `json:"SignName"`
	TemplateId       string   `json:"TemplateId"`
	TemplateParamSet []string `json:"TemplateParamSet"`
}

// SendStatus 单个号码的投递状态
type SendStatus struct {
	SerialNo       string `json:"SerialNo"`
	PhoneNumber    string `json:"PhoneNumber"`
	Fee            uint32 `json:"Fee"`
	SessionContext string `json:"SessionContext"`
	Code           string `json:"Code"`
	Message        string `json:"Message"`
	IsoCode        string `json:"IsoCode"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// SendSmsResponse 发送结果
type SendSmsResponse struct {
	RequestId     string       `json:"RequestId"`
	SendStatusSet []SendStatus `json:"SendStatusSet"`
	Error         *apiError    `json:"Error,omitempty"`
}

type responseEnvelope struct {
	Response SendSmsResponse `json:"Response"`
}

// SendSms 发送模板短信
//
// templateParams are positional template variables, the code first.
func (t *Tencent) SendSms(ctx context.Context, region Region, signName string, phoneNumbers []string, templateID string, templateParams []string) (*SendSmsResponse, error) {
	const action = "SendSms"

	payload, err := json.Marshal(sendSmsRequest{
		PhoneNumberSet:   phoneNumbers,
		SmsSdkAppId:      t.smsAppID,
		SignName:         signName,
		TemplateId:       templateID,
		TemplateParamSet: templateParams,
	})
	if err != nil {
		return nil, err
	}

	now := t.now()
	authorization := t.authorization(action, now, payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", tencentContentType)
	req.Header.Set("Host", t.signedHost())
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", now.Unix()))
	req.Header.Set("X-TC-Version", tencentVersion)
	req.Header.Set("X-TC-Region", string(region))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tencent sms response status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode tencent response: %w", err)
	}
	if envelope.Response.Error != nil {
		return nil, fmt.Errorf("tencent sms error %s: %s",
			envelope.Response.Error.Code, envelope.Response.Error.Message)
	}
	return &envelope.Response, nil
}

// authorization builds the TC3-HMAC-SHA256 Authorization header for the
// payload about to be sent. The exact request bytes are hashed, so the
// payload must not be re-marshaled afterwards.
func (t *Tencent) authorization(action string, now time.Time, payload []byte) string {
	host := t.signedHost()
	date := now.UTC().Format("2006-01-02")

	canonicalRequest := strings.Join([]string{
		"POST",
		"/",
		"",
		"content-type:" + tencentContentType,
		"host:" + host,
		"x-tc-action:" + strings.ToLower(action),
		"",
		"content-type;host;x-tc-action",
		hexSHA256(payload),
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/tc3_request", date, tencentService)
	stringToSign := strings.Join([]string{
		"TC3-HMAC-SHA256",
		fmt.Sprintf("%d", now.Unix()),
		credentialScope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	secretDate := hmacSHA256([]byte("TC3"+t.secretKey), []byte(date))
	secretService := hmacSHA256(secretDate, []byte(tencentService))
	secretSigning := hmacSHA256(secretService, []byte("tc3_request"))
	signature := hex.EncodeToString(hmacSHA256(secretSigning, []byte(stringToSign)))

	return fmt.Sprintf(
		"TC3-HMAC-SHA256 Credential=%s/%s, SignedHeaders=content-type;host;x-tc-action, Signature=%s",
		t.secretID, credentialScope, signature)
}

// signedHost is the host that participates in the signature. The real API
// host is used even when the endpoint is overridden, so test servers see
// production-shaped signatures.
func (t *Tencent) signedHost() string {
	u, err := url.Parse(t.endpoint)
	if err != nil || u.Host == "" {
		return tencentHost
	}
	return u.Host
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// TencentSender adapts the Tencent client to the Sender contract.
type TencentSender struct {
	client     *Tencent
	region     Region
	signName   string
	templateID string
}

// NewTencentSender creates a Sender dispatching through Tencent Cloud SMS.
func NewTencentSender(client *Tencent, region Region, signName, templateID string) *TencentSender {
	return &TencentSender{
		client:     client,
		region:     region,
		signName:   signName,
		templateID: templateID,
	}
}

// Send implements Sender.
func (s *TencentSender) Send(ctx context.Context, mobile, code string) error {
	resp, err := s.client.SendSms(ctx, s.region, s.signName, []string{mobile}, s.templateID, []string{code})
	if err != nil {
		return err
	}
	if len(resp.SendStatusSet) == 0 {
		return fmt.Errorf("tencent sms: empty send status")
	}
	if status := resp.SendStatusSet[0]; status.Code != "Ok" {
		return fmt.Errorf("tencent sms rejected: %s (%s)", status.Message, status.Code)
	}
	return nil
}
