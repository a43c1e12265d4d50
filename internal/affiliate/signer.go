// Package affiliate 封装对外部推广联盟接口的签名请求。
package affiliate

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/cashback-next/internal/constants"
)

// CanonicalString 构造待签名串：method + path + "?" + query + "/" + clientID + date
// 说明：顺序固定，query 按调用方已编码的形式原样拼接。
func CanonicalString(method, path, query, clientID, date string) string {
	var b strings.Builder
	b.Grow(len(method) + len(path) + len(query) + len(clientID) + len(date) + 2)
	b.WriteString(method)
	b.WriteString(path)
	b.WriteString("?")
	b.WriteString(query)
	b.WriteString("/")
	b.WriteString(clientID)
	b.WriteString(date)
	return b.String()
}

// Sign 使用 HMAC-SHA1 对待签名串签名，encoding 为 hex（默认）或 base64
func Sign(method, path, query, clientID, secretKey, date, encoding string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	_, _ = mac.Write([]byte(CanonicalString(method, path, query, clientID, date)))
	sum := mac.Sum(nil)
	if strings.EqualFold(strings.TrimSpace(encoding), constants.SignatureEncodingBase64) {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// FormatDate 以 HTTP 日期格式输出签名时间
func FormatDate(now time.Time) string {
	return now.UTC().Format(http.TimeFormat)
}

// NewSignedRequest 构造带签名头的请求；签名时间同时写入 Date 头，服务端据此拒绝过期请求
func NewSignedRequest(ctx context.Context, cfg *Config, method, path, query string, now time.Time) (*http.Request, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + path
	if query != "" {
		endpoint += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}

	date := FormatDate(now)
	signature := Sign(method, path, query, cfg.ClientID, cfg.SecretKey, date, cfg.SignatureEncoding)
	req.Header.Set(constants.AffiliateHeaderDate, date)
	req.Header.Set(cfg.ClientIDHeader, cfg.ClientID)
	req.Header.Set(cfg.SignatureHeader, signature)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
