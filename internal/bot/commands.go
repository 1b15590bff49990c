package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dezhurka/internal/app"
	"github.com/shrimpsizemoose/dezhurka/internal/models"
)

const helpText = `可用命令:
/login <邀请码> - 验证身份
/deduct <班级> <学生> <分数> <原因> - 记录扣分
/score <班级> - 查询班级本周得分
/class <班级> - 查询班级本周扣分记录
/summary - 本周总表
/logout - 退出
/help - 显示本帮助

示例:
/deduct 7A 李明 5 迟到
/score 7A`

var errUsage = errors.New("usage")

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"help":  b.handleHelp,
		"login": b.handleLogin,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeVerifiedCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"deduct":  b.handleDeduct,
		"score":   b.handleScore,
		"class":   b.handleClass,
		"summary": b.handleSummary,
		"logout":  b.handleLogout,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routePublicCommands(cmd); ok {
		b.run(handler, msg)
		return
	}

	handler, ok := b.routeVerifiedCommands(cmd)
	if !ok {
		b.sendHelp(msg.Chat.ID)
		return
	}

	allowed, err := b.chatAllowed(msg)
	if err != nil {
		logger.Error.Printf("Failed to check chat %d: %v", msg.Chat.ID, err)
		b.sendMessage(msg.Chat.ID, "服务暂时不可用")
		return
	}
	if !allowed {
		b.sendMessage(msg.Chat.ID, "请先用 /login <邀请码> 验证身份")
		return
	}

	b.run(handler, msg)
}

func (b *Bot) run(handler commandHandler, msg *tgbotapi.Message) {
	if err := handler(msg); err != nil {
		logger.Error.Printf("Command error: %v", err)
		b.sendMessage(msg.Chat.ID, "操作失败，请稍后再试")
	}
}

func (b *Bot) chatAllowed(msg *tgbotapi.Message) (bool, error) {
	if msg.From != nil && b.admins[msg.From.ID] {
		return true, nil
	}
	return b.service.Auth.ChatAllowed(context.Background(), msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendMessage(msg.Chat.ID, helpText)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "请使用命令与我交互，发送 /help 查看命令列表。")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "你好！我是值周扣分助手。\n\n"
	if b.service.Auth.Enabled() {
		text += "先用 /login <邀请码> 验证身份，然后发送 /help 查看命令。"
	} else {
		text += "发送 /help 查看命令。"
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleLogin(msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	err := b.service.Auth.LoginChat(context.Background(), msg.Chat.ID, code)
	if errors.Is(err, app.ErrWrongPasscode) {
		return b.sendMessage(msg.Chat.ID, "邀请码错误，请重新输入")
	}
	if err != nil {
		return fmt.Errorf("failed to verify chat %d: %w", msg.Chat.ID, err)
	}
	return b.sendMessage(msg.Chat.ID, "✅ 验证成功")
}

func (b *Bot) handleLogout(msg *tgbotapi.Message) error {
	if err := b.service.Auth.LogoutChat(context.Background(), msg.Chat.ID); err != nil {
		return fmt.Errorf("failed to forget chat %d: %w", msg.Chat.ID, err)
	}
	return b.sendMessage(msg.Chat.ID, "已退出")
}

// parseDeductArgs splits "<class> <student> <score> <reason...>". The reason
// keeps its inner spaces. Nothing is validated here beyond arity.
func parseDeductArgs(args string) (form models.DeductionForm, err error) {
	fields := strings.Fields(args)
	if len(fields) < 4 {
		return form, errUsage
	}

	rest := strings.TrimSpace(args)
	for i := 0; i < 3; i++ {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[i]))
	}

	return models.DeductionForm{
		ClassName:   fields[0],
		StudentName: fields[1],
		Score:       models.RawScore(fields[2]),
		Reason:      rest,
	}, nil
}

func (b *Bot) handleDeduct(msg *tgbotapi.Message) error {
	form, err := parseDeductArgs(msg.CommandArguments())
	if err != nil {
		return b.sendMessage(msg.Chat.ID, "用法: /deduct <班级> <学生> <分数> <原因>")
	}

	ok, err := b.service.Board.RecordDeduction(form.ClassName, form.StudentName, form.Reason, string(form.Score))
	if err != nil {
		return err
	}
	if !ok {
		return b.sendMessage(msg.Chat.ID, "❌ 记录未保存：请检查各项是否填写，分数须为正整数")
	}

	score, err := b.service.Board.ClassScore(form.ClassName)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ 已记录 %s %s -%s（%s）\n%s 本周得分: %d",
		form.ClassName, form.StudentName, form.Score, form.Reason, form.ClassName, score))
}

func classArg(msg *tgbotapi.Message) string {
	return strings.TrimSpace(msg.CommandArguments())
}

func (b *Bot) handleScore(msg *tgbotapi.Message) error {
	class := classArg(msg)
	if class == "" {
		return b.sendMessage(msg.Chat.ID, "用法: /score <班级>")
	}

	score, err := b.service.Board.ClassScore(class)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("%s 本周得分: %d", class, score))
}

func (b *Bot) handleClass(msg *tgbotapi.Message) error {
	class := classArg(msg)
	if class == "" {
		return b.sendMessage(msg.Chat.ID, "用法: /class <班级>")
	}

	summary, err := b.service.Board.ClassRecords(class)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatClass(summary))
}

func (b *Bot) handleSummary(msg *tgbotapi.Message) error {
	summary, err := b.service.Board.CurrentWeekSummary()
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatSummary(summary))
}

func formatClass(summary *models.ClassSummary) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("📋 %s 本周得分: %d\n", summary.ClassName, summary.Score))
	if len(summary.Records) == 0 {
		msg.WriteString("本周暂无扣分记录")
		return msg.String()
	}
	for _, r := range summary.Records {
		msg.WriteString(fmt.Sprintf("\n%s  %s -%d  %s", r.Time, r.StudentName, r.Score, r.Reason))
	}
	return msg.String()
}

func formatSummary(summary *models.WeeklySummary) string {
	if len(summary.ByClass) == 0 {
		return fmt.Sprintf("%s 暂无扣分记录", summary.Week)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("📊 %s 总表\n", summary.Week))
	for _, cls := range summary.Sorted() {
		msg.WriteString("\n")
		msg.WriteString(formatClass(cls))
		msg.WriteString("\n")
	}
	return strings.TrimRight(msg.String(), "\n")
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
