package telegram

// Wire types for the subset of the Bot API this bot touches.

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is an inbound or outbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

// User identifies a message sender.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Chat identifies the conversation a message belongs to. Private chats
// have the user's id; groups are negative ids.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// IsPrivate reports whether this is a one-to-one chat.
func (c Chat) IsPrivate() bool { return c.Type == "private" }

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup payload for sendMessage.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// YesNoKeyboard builds the two-button confirmation keyboard.
func YesNoKeyboard(yesData, noData string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "Yes", CallbackData: yesData}},
			{{Text: "No", CallbackData: noData}},
		},
	}
}
