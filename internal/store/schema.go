package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions applied by the ent migrator on Open.
var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString, Default: "Student"},
		{Name: "created_at", Type: field.TypeInt64},
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "image_ref", Type: field.TypeString, Default: ""},
		{Name: "extracted_text", Type: field.TypeString, Size: 2147483647},
		{Name: "translated_text", Type: field.TypeString, Size: 2147483647},
		{Name: "subject", Type: field.TypeString},
		{Name: "has_equations", Type: field.TypeBool, Default: false},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "questions", Type: field.TypeString, Size: 2147483647},
		{Name: "language", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Default: string("active")},
		{Name: "created_at", Type: field.TypeInt64},
	}
	sessionsTable = &schema.Table{
		Name:       "homework_sessions",
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "homework_sessions_users_sessions",
				Columns:    []*schema.Column{sessionsColumns[1]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "homeworksession_created_at", Columns: []*schema.Column{sessionsColumns[11]}},
			{Name: "homeworksession_user_id", Columns: []*schema.Column{sessionsColumns[1]}},
		},
	}

	messagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "role", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "language", Type: field.TypeString, Default: "english"},
		{Name: "created_at", Type: field.TypeInt64},
	}
	messagesTable = &schema.Table{
		Name:       "conversation_messages",
		Columns:    messagesColumns,
		PrimaryKey: []*schema.Column{messagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "conversation_messages_homework_sessions_messages",
				Columns:    []*schema.Column{messagesColumns[1]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "conversationmessage_session_id_created_at", Columns: []*schema.Column{messagesColumns[1], messagesColumns[6]}},
		},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[5]}},
		},
	}

	globalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
	}

	tables = []*schema.Table{
		usersTable,
		sessionsTable,
		messagesTable,
		llmEventsTable,
		globalSequenceTable,
	}
)

func init() {
	sessionsTable.ForeignKeys[0].RefTable = usersTable
	messagesTable.ForeignKeys[0].RefTable = sessionsTable
}
