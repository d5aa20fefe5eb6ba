package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"privateinbox/backend/internal/storage"
)

const restPath = "/rest/v1"

// Config REST 存储客户端配置
type Config struct {
	URL        string        // 项目地址，如 https://xyz.supabase.co
	Key        string        // 访问凭证（anon / service key）
	Schema     string        // 数据库 schema，默认 public
	Timeout    time.Duration // 单次请求超时
	HTTPClient *http.Client  // 可选，测试时注入
}

// Client 通过 PostgREST 协议访问托管存储。
type Client struct {
	base   *url.URL
	key    string
	schema string
	http   *http.Client
	log    *zap.Logger
}

// New 创建 REST 存储客户端
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("store url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store url: %q", cfg.URL)
	}
	if !strings.HasSuffix(base.Path, restPath) {
		base.Path += restPath
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		base:   base,
		key:    cfg.Key,
		schema: schema,
		http:   httpClient,
		log:    log,
	}, nil
}

// Insert 插入一行，使用 return=representation 取回存储分配的字段
func (c *Client) Insert(ctx context.Context, table string, record storage.Record) (storage.Record, error) {
	body, err := json.Marshal([]storage.Record{record})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, table, nil, body, "return=representation")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return rows[0], nil
}

// Select 查询行
func (c *Client) Select(ctx context.Context, table string, filters []storage.Filter, order *storage.Order) ([]storage.Record, error) {
	query, err := filterQuery(filters)
	if err != nil {
		return nil, err
	}
	query.Set("select", "*")
	if order != nil {
		if err := storage.ValidIdentifier(order.Column); err != nil {
			return nil, err
		}
		dir := "asc"
		if order.Descending {
			dir = "desc"
		}
		query.Set("order", order.Column+"."+dir)
	}

	resp, err := c.do(ctx, http.MethodGet, table, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []storage.Record{}
	}
	return rows, nil
}

// Update 对满足过滤条件的行应用 patch，影响行数取自 Content-Range
func (c *Client) Update(ctx context.Context, table string, patch storage.Record, filters []storage.Filter) (int64, error) {
	if len(patch) == 0 {
		return 0, storage.ErrEmptyPatch
	}
	query, err := filterQuery(filters)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("encode patch: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, table, query, body, "return=minimal,count=exact")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return parseContentRange(resp.Header.Get("Content-Range")), nil
}

// Ping 请求 REST 根路径检查连通性
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String()+"/", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &storage.APIError{Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body []byte, prefer string) (*http.Response, error) {
	if err := storage.ValidIdentifier(table); err != nil {
		return nil, err
	}

	endpoint := *c.base
	endpoint.Path += "/" + table
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("store request",
		zap.String("method", method),
		zap.String("table", table),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.key != "" {
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		req.Header.Set("Accept-Profile", c.schema)
	default:
		req.Header.Set("Content-Profile", c.schema)
	}
}

// filterQuery 将过滤条件编码为 PostgREST 查询参数（column=op.value）
func filterQuery(filters []storage.Filter) (url.Values, error) {
	if err := storage.ValidateFilters(filters); err != nil {
		return nil, err
	}
	query := url.Values{}
	for _, f := range filters {
		query.Add(f.Column, string(f.Operator)+"."+formatValue(f.Value))
	}
	return query, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case time.Time:
		return storage.FormatTime(val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprint(v)
}

func decodeRows(r io.Reader) ([]storage.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []storage.Record
	if err := dec.Decode(&rows); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode store response: %w", err)
	}
	return rows, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &storage.APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		if text := strings.TrimSpace(string(raw)); text != "" && apiErr.Message == "" {
			apiErr.Message = text
		}
	}
	return apiErr
}

// parseContentRange 解析 "0-9/10" 或 "*/10"，总数未知时返回 -1
func parseContentRange(header string) int64 {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return -1
	}
	n, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
