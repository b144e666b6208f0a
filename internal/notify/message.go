package notify

import "context"

// QuickReply is a one-tap answer shown under a prompt.
type QuickReply struct {
	Title   string
	Payload string
}

// Button is a postback button of a template message.
type Button struct {
	Title   string
	Payload string
}

// Template is a card with a title, an optional subtitle and postback buttons.
type Template struct {
	Title    string
	Subtitle string
	Buttons  []Button
}

// Platform is the outbound side of a messaging platform.
type Platform interface {
	SendText(ctx context.Context, recipient int64, text string) error
	SendQuickReplies(ctx context.Context, recipient int64, prompt string, replies []QuickReply) error
	SendTemplate(ctx context.Context, recipient int64, tpl Template) error
}

type Kind string

const (
	KindText         Kind = "text"
	KindQuickReplies Kind = "quick_replies"
	KindTemplate     Kind = "template"
)

// Message is one outbound message of any kind.
type Message struct {
	Kind     Kind
	Text     string
	Replies  []QuickReply
	Template Template
}

func Text(text string) Message {
	return Message{Kind: KindText, Text: text}
}

func QuickReplies(prompt string, replies ...QuickReply) Message {
	return Message{Kind: KindQuickReplies, Text: prompt, Replies: replies}
}

func TemplateMessage(tpl Template) Message {
	return Message{Kind: KindTemplate, Template: tpl}
}
