package gemini

// DigestSystemInstruction is the default system instruction for the digest
// writer when none is configured.
const DigestSystemInstruction = `You are the reporting assistant of an automated market signal bot. ` +
	`You receive raw statistics about the bot's scheduled runs and the trading signals it produced. ` +
	`Write a concise daily summary in plain language: overall health of the runs, notable failures, ` +
	`and the signals worth attention. Use Telegram Markdown sparingly (backticks for symbols and numbers). ` +
	`Do not invent data that is not in the statistics. Keep it under 150 words.`

// DigestPromptHeader prefixes the statistics block handed to the model.
const DigestPromptHeader = "Statistics for the last 24 hours:\n\n"
