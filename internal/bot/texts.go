package bot

import "fmt"

// User-visible reply texts.

const (
	restrictedText = "This bot is only available in specific group chats."

	alreadyCaughtUpText = "You're already caught up! I'll notify you when there are more new messages to summarize."

	declineText = "Okay, let me know if you change your mind!"

	unknownCommandText = `Sorry, I don't recognize that command. Here are the commands I support:

/start - Start the bot and get welcome message
/chatzip - Check for unread messages and get a summary if needed
/whatshot - See what's trending right now

Try one of these commands!`
)

func welcomeText(limit int) string {
	return fmt.Sprintf("👋 Hi! I'm your friendly commit365-Bot-helper. Right now the only thing I can do is help you catch up on group chats by summarizing unread messages. "+
		"You can summon me by calling /start or /chatzip to sumarize your unread chats, also I'll notify you when you have more than %d unread messages in case you want a summary! feel free to make me more useful by adding more features.", limit)
}

func caughtUpText(count int) string {
	return fmt.Sprintf("You have %d unread messages - you're all caught up! 👍", count)
}

func promptText(limit int) string {
	return fmt.Sprintf("You have more than %d unread messages. Would you like a summary?", limit)
}

func dmNoticeText(name string) string {
	return fmt.Sprintf("Hey @%s, I've sent you a private message about summarizing the unread messages. Please check your DMs! -This message will self-destruct in 10 seconds. do you feel like Tom Cruise now?🤣🤣🤣", name)
}

func summaryText(summary string) string {
	return "Here's your summary:\n\n" + summary
}
