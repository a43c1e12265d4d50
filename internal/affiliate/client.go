package affiliate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/constants"
)

var (
	ErrConfigInvalid   = errors.New("affiliate config invalid")
	ErrNotFound        = errors.New("affiliate resource not found")
	ErrRequestFailed   = errors.New("affiliate request failed")
	ErrResponseInvalid = errors.New("affiliate response invalid")
)

const maxResponseBytes = 4 << 20

// Config 推广联盟接口配置
type Config struct {
	BaseURL           string
	ClientID          string
	SecretKey         string
	SignatureEncoding string
	ClientIDHeader    string
	SignatureHeader   string
	PartnersPath      string
	StatsPath         string
	DeepLinkPath      string
	Timeout           time.Duration
}

// ConfigFromApp 从应用配置转换
func ConfigFromApp(cfg config.AffiliateConfig) *Config {
	c := &Config{
		BaseURL:           strings.TrimSpace(cfg.BaseURL),
		ClientID:          strings.TrimSpace(cfg.ClientID),
		SecretKey:         cfg.SecretKey,
		SignatureEncoding: strings.ToLower(strings.TrimSpace(cfg.SignatureEncoding)),
		ClientIDHeader:    strings.TrimSpace(cfg.ClientIDHeader),
		SignatureHeader:   strings.TrimSpace(cfg.SignatureHeader),
		PartnersPath:      strings.TrimSpace(cfg.PartnersPath),
		StatsPath:         strings.TrimSpace(cfg.StatsPath),
		DeepLinkPath:      strings.TrimSpace(cfg.DeepLinkPath),
		Timeout:           time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if c.SignatureEncoding != constants.SignatureEncodingBase64 {
		c.SignatureEncoding = constants.SignatureEncodingHex
	}
	if c.ClientIDHeader == "" {
		c.ClientIDHeader = constants.AffiliateHeaderClientIDDefault
	}
	if c.SignatureHeader == "" {
		c.SignatureHeader = constants.AffiliateHeaderSignatureDefault
	}
	if c.PartnersPath == "" {
		c.PartnersPath = "/v1/partners"
	}
	if c.StatsPath == "" {
		c.StatsPath = "/v1/statistics/commissions"
	}
	if c.DeepLinkPath == "" {
		c.DeepLinkPath = "/v1/deeplink"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// ValidateConfig 校验配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if cfg.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

// Partner 合作方快照
type Partner struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Commission string `json:"commission"` // "X%" 或 "X%-Y%"
	SiteURL    string `json:"site_url"`
}

// CommissionStat 合作方佣金统计
type CommissionStat struct {
	PartnerID  string  `json:"partner_id"`
	Orders     int     `json:"orders"`
	Commission string  `json:"commission"`
	Amount     float64 `json:"amount"`
}

// Client 推广联盟接口客户端
type Client struct {
	cfg  *Config
	http *http.Client
	now  func() time.Time
}

// NewClient 创建客户端，httpClient 为空时按配置超时创建
func NewClient(cfg *Config, httpClient *http.Client) *Client {
	if cfg != nil {
		cfg.normalize()
	}
	if httpClient == nil {
		timeout := 10 * time.Second
		if cfg != nil {
			timeout = cfg.Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

// Configured 判断客户端是否可用
func (c *Client) Configured() bool {
	return c != nil && ValidateConfig(c.cfg) == nil
}

// ListPartners 获取合作方列表
func (c *Client) ListPartners(ctx context.Context) ([]Partner, error) {
	var resp struct {
		Results []Partner `json:"results"`
	}
	if err := c.getJSON(ctx, c.cfg.PartnersPath, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetPartner 获取单个合作方
func (c *Client) GetPartner(ctx context.Context, partnerID string) (*Partner, error) {
	id := strings.TrimSpace(partnerID)
	if id == "" {
		return nil, fmt.Errorf("%w: partner id is empty", ErrRequestFailed)
	}
	var partner Partner
	if err := c.getJSON(ctx, strings.TrimRight(c.cfg.PartnersPath, "/")+"/"+url.PathEscape(id), url.Values{}, &partner); err != nil {
		return nil, err
	}
	if strings.TrimSpace(partner.ID) == "" {
		partner.ID = id
	}
	return &partner, nil
}

// CommissionStats 获取合作方佣金统计
func (c *Client) CommissionStats(ctx context.Context, partnerID string, from, to time.Time) ([]CommissionStat, error) {
	query := url.Values{}
	if partnerID = strings.TrimSpace(partnerID); partnerID != "" {
		query.Set("partner_id", partnerID)
	}
	if !from.IsZero() {
		query.Set("date_start", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("date_end", to.Format("2006-01-02"))
	}
	var resp struct {
		Results []CommissionStat `json:"results"`
	}
	if err := c.getJSON(ctx, c.cfg.StatsPath, query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DeepLink 为合作方生成跟踪链接，subID 用于回传用户标识
func (c *Client) DeepLink(ctx context.Context, partnerID, subID string) (string, error) {
	query := url.Values{}
	query.Set("partner_id", strings.TrimSpace(partnerID))
	if subID = strings.TrimSpace(subID); subID != "" {
		query.Set("subid", subID)
	}
	var resp struct {
		Link string `json:"link"`
	}
	if err := c.getJSON(ctx, c.cfg.DeepLinkPath, query, &resp); err != nil {
		return "", err
	}
	link := strings.TrimSpace(resp.Link)
	if link == "" {
		return "", fmt.Errorf("%w: empty link", ErrResponseInvalid)
	}
	return link, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if !c.Configured() {
		return ErrConfigInvalid
	}
	req, err := NewSignedRequest(ctx, c.cfg, http.MethodGet, path, query.Encode(), c.now())
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return nil
}
