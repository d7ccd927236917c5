package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"onprem-cd/internal/pkg/config"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyPublishSuccess NotificationType = "publish_success" // 发布成功
	NotifyPublishInvalid NotificationType = "publish_invalid" // chart 校验不通过
	NotifyPublishFailed  NotificationType = "publish_failed"  // 发布失败
	NotifyVersionStuck   NotificationType = "version_stuck"   // 构建超时
)

// typeStyles 通知类型对应的卡片标题与颜色
var typeStyles = map[NotificationType]struct{ title, color string }{
	NotifyPublishSuccess: {"✅ 版本发布成功", "green"},
	NotifyPublishInvalid: {"⚠️ Chart 校验未通过", "orange"},
	NotifyPublishFailed:  {"❌ 版本发布失败", "red"},
	NotifyVersionStuck:   {"⏱️ 版本构建超时", "red"},
}

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Color     string           `json:"color,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// PublishEvent 一次发布的上下文
type PublishEvent struct {
	VersionID   int64
	ProjectName string
	Version     string
	Directories []string
}

// Notifier 通知器接口
type Notifier interface {
	// Send 发送通知
	Send(ctx context.Context, msg *NotificationMessage) error

	// SendPublishNotification 发送版本发布通知
	SendPublishNotification(ctx context.Context, event *PublishEvent, notifyType NotificationType, message string) error
}

// New 按配置创建通知器, 未启用时只记录日志
func New(cfg *config.NotificationConfig, logger *zap.Logger) Notifier {
	logNotifier := NewLogNotifier(logger)
	if !cfg.Enabled || cfg.Provider != "lark" {
		return logNotifier
	}
	lark := NewLarkNotifier(cfg.LarkWebhook, true, logger)
	lark.secret = cfg.LarkSecret
	return NewMultiNotifier(logger, logNotifier, lark)
}

// PublishMessage 将发布事件渲染为通知消息
func PublishMessage(event *PublishEvent, notifyType NotificationType, message string) *NotificationMessage {
	style, ok := typeStyles[notifyType]
	if !ok {
		style.title, style.color = "📢 版本通知", "grey"
	}

	lines := []string{fmt.Sprintf("**项目**: %s", event.ProjectName),
		fmt.Sprintf("**版本**: %s (ID: %d)", event.Version, event.VersionID)}
	if len(event.Directories) > 0 {
		lines = append(lines, "**仓库**: "+strings.Join(event.Directories, ", "))
	}
	if message != "" {
		lines = append(lines, "**消息**: "+message)
	}

	return &NotificationMessage{
		Type:      notifyType,
		Title:     style.title,
		Content:   strings.Join(lines, "\n"),
		Color:     style.color,
		Timestamp: time.Now(),
	}
}

// ============= Lark 通知适配器 =============

type larkText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type larkElement struct {
	Tag  string   `json:"tag"`
	Text larkText `json:"text"`
}

type larkCard struct {
	Header struct {
		Title    larkText `json:"title"`
		Template string   `json:"template"`
	} `json:"header"`
	Elements []larkElement `json:"elements"`
}

type larkPayload struct {
	Timestamp string   `json:"timestamp,omitempty"`
	Sign      string   `json:"sign,omitempty"`
	MsgType   string   `json:"msg_type"`
	Card      larkCard `json:"card"`
}

// LarkNotifier Lark 机器人通知器
type LarkNotifier struct {
	webhookURL string
	secret     string // 机器人签名校验密钥, 为空时不签名
	enabled    bool
	logger     *zap.Logger
	client     *http.Client
	now        func() time.Time
}

// NewLarkNotifier 创建Lark通知器
func NewLarkNotifier(webhookURL string, enabled bool, logger *zap.Logger) *LarkNotifier {
	return &LarkNotifier{
		webhookURL: webhookURL,
		enabled:    enabled,
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Send 发送通知
func (n *LarkNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	if !n.enabled {
		n.logger.Debug("通知已禁用,跳过发送")
		return nil
	}
	if n.webhookURL == "" {
		n.logger.Warn("Lark Webhook URL未配置")
		return nil
	}

	payload, err := n.payload(msg)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Lark API返回错误状态码: %d", resp.StatusCode)
	}

	n.logger.Info("Lark通知发送成功", zap.String("type", string(msg.Type)), zap.String("title", msg.Title))
	return nil
}

// SendPublishNotification 发送版本发布通知
func (n *LarkNotifier) SendPublishNotification(ctx context.Context, event *PublishEvent, notifyType NotificationType, message string) error {
	return n.Send(ctx, PublishMessage(event, notifyType, message))
}

func (n *LarkNotifier) payload(msg *NotificationMessage) (*larkPayload, error) {
	color := msg.Color
	if color == "" {
		color = "grey"
	}

	p := &larkPayload{MsgType: "interactive"}
	p.Card.Header.Title = larkText{Tag: "plain_text", Content: msg.Title}
	p.Card.Header.Template = color
	p.Card.Elements = []larkElement{
		{Tag: "div", Text: larkText{Tag: "lark_md", Content: msg.Content}},
		{Tag: "div", Text: larkText{Tag: "plain_text", Content: "时间: " + msg.Timestamp.Format("2006-01-02 15:04:05")}},
	}

	if n.secret != "" {
		ts := strconv.FormatInt(n.now().Unix(), 10)
		sign, err := larkSign(ts, n.secret)
		if err != nil {
			return nil, err
		}
		p.Timestamp, p.Sign = ts, sign
	}
	return p, nil
}

// larkSign 以 "timestamp\nsecret" 为 key 对空串做 HmacSHA256 再 base64
func larkSign(timestamp, secret string) (string, error) {
	mac := hmac.New(sha256.New, []byte(timestamp+"\n"+secret))
	if _, err := mac.Write(nil); err != nil {
		return "", fmt.Errorf("计算签名失败: %w", err)
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// ============= 多通知器 =============

// MultiNotifier 同时发送到多个渠道, 单个渠道失败不影响其余渠道
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier 创建多通知器
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, logger: logger}
}

// Send 发送到所有通知器
func (m *MultiNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	return m.each(func(n Notifier) error { return n.Send(ctx, msg) })
}

// SendPublishNotification 发送版本发布通知到所有通知器
func (m *MultiNotifier) SendPublishNotification(ctx context.Context, event *PublishEvent, notifyType NotificationType, message string) error {
	return m.each(func(n Notifier) error {
		return n.SendPublishNotification(ctx, event, notifyType, message)
	})
}

// each 返回最后一个失败渠道的错误
func (m *MultiNotifier) each(send func(Notifier) error) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := send(notifier); err != nil {
			m.logger.Error("发送通知失败", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// ============= 日志通知器 =============

// LogNotifier 仅记录日志, 不发送实际通知
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send 记录通知到日志
func (n *LogNotifier) Send(_ context.Context, msg *NotificationMessage) error {
	n.logger.Info("📢 通知",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("content", msg.Content))
	return nil
}

// SendPublishNotification 记录发布通知到日志
func (n *LogNotifier) SendPublishNotification(_ context.Context, event *PublishEvent, notifyType NotificationType, message string) error {
	n.logger.Info("📢 发布通知",
		zap.String("type", string(notifyType)),
		zap.Int64("version_id", event.VersionID),
		zap.String("project", event.ProjectName),
		zap.String("version", event.Version),
		zap.Strings("directories", event.Directories),
		zap.String("message", message))
	return nil
}
