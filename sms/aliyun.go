package sms

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ooiai/neocrates/json"
)

// Aliyun Dysmsapi constants. Version and signature parameters are fixed
// by the API.
const (
	aliyunEndpoint         = "https://dysmsapi.aliyuncs.com"
	aliyunVersion          = "2017-05-25"
	aliyunSignatureVersion = "1.0"
	aliyunSignatureMethod  = "HMAC-SHA1"
	aliyunFormat           = "json"
	aliyunRegion           = "cn-hangzhou"
)

// Aliyun 阿里云短信客户端
//
// RPC-style signed GET requests against Dysmsapi, HMAC-SHA1 over the
// canonicalized query string.
type Aliyun struct {
	accessKeyID  string
	accessSecret string
	endpoint     string
	httpClient   *http.Client
	now          func() time.Time
}

// AliyunOption configures the client.
type AliyunOption func(*Aliyun)

// WithAliyunEndpoint overrides the API endpoint. Used by tests.
func WithAliyunEndpoint(endpoint string) AliyunOption {
	return func(a *Aliyun) {
		a.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithAliyunHTTPClient overrides the HTTP client.
func WithAliyunHTTPClient(client *http.Client) AliyunOption {
	return func(a *Aliyun) {
		a.httpClient = client
	}
}

// NewAliyun creates a client with the given access key pair.
func NewAliyun(accessKeyID, accessSecret string, opts ...AliyunOption) *Aliyun {
	a := &Aliyun{
		accessKeyID:  accessKeyID,
		accessSecret: accessSecret,
		endpoint:     aliyunEndpoint,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SendSms 发送模板短信
//
// templateParam is the JSON template payload, e.g. {"code":"123456"}.
// Returns the raw response fields; Code == "OK" indicates success.
func (a *Aliyun) SendSms(ctx context.Context, phoneNumbers, signName, templateCode, templateParam string) (map[string]string, error) {
	params := map[string]string{
		"PhoneNumbers":  phoneNumbers,
		"SignName":      signName,
		"TemplateCode":  templateCode,
		"TemplateParam": templateParam,
		"RegionId":      aliyunRegion,
		"Action":        "SendSms",
		"Version":       aliyunVersion,
	}

	query := a.canonicalizeQueryString(params)
	signature := a.signature("GET&%2F&" + percentEncode(query))

	reqURL := fmt.Sprintf("%s/?%s&Signature=%s", a.endpoint, query, percentEncode(signature))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode aliyun response: %w", err)
	}
	return result, nil
}

// canonicalizeQueryString assembles the signed query string: public
// signature parameters plus the request parameters, percent-encoded and
// sorted.
func (a *Aliyun) canonicalizeQueryString(params map[string]string) string {
	now := a.now().UTC()

	all := map[string]string{
		"AccessKeyId":      a.accessKeyID,
		"Format":           aliyunFormat,
		"SignatureMethod":  aliyunSignatureMethod,
		"SignatureNonce":   fmt.Sprintf("%d", now.UnixMicro()),
		"SignatureVersion": aliyunSignatureVersion,
		"Timestamp":        now.Format("2006-01-02T15:04:05Z"),
	}
	for k, v := range params {
		all[k] = v
	}

	pairs := make([]string, 0, len(all))
	for k, v := range all {
		pairs = append(pairs, k+"="+percentEncode(v))
	}
	sort.Strings(pairs)

	return strings.Join(pairs, "&")
}

func (a *Aliyun) signature(stringToSign string) string {
	mac := hmac.New(sha1.New, []byte(a.accessSecret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies the RFC 3986 variant the Aliyun RPC signature
// requires: space as %20, * as %2A, ~ unescaped.
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

// AliyunSender adapts the Aliyun client to the Sender contract with a
// fixed sign name and template.
type AliyunSender struct {
	client       *Aliyun
	signName     string
	templateCode string
}

// NewAliyunSender creates a Sender dispatching through Aliyun SMS.
func NewAliyunSender(client *Aliyun, signName, templateCode string) *AliyunSender {
	return &AliyunSender{
		client:       client,
		signName:     signName,
		templateCode: templateCode,
	}
}

// Send implements Sender. The code is injected as the template's code
// variable.
func (s *AliyunSender) Send(ctx context.Context, mobile, code string) error {
	templateParam, err := json.MarshalToString(map[string]string{"code": code})
	if err != nil {
		return err
	}

	resp, err := s.client.SendSms(ctx, mobile, s.signName, s.templateCode, templateParam)
	if err != nil {
		return err
	}

	if resp["Code"] != "OK" {
		message := resp["Message"]
		if message == "" {
			message = "Unknown error"
		}
		return fmt.Errorf("aliyun sms rejected: %s", message)
	}
	return nil
}
