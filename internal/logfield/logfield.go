package lf

import "go.uber.org/zap"

const (
	FieldModule      = "module"
	FieldUserID      = "user_id"
	FieldCallerID    = "caller_id"
	FieldRole        = "role"
	FieldAssignment  = "assignment"
	FieldAmount      = "amount"
	FieldDefendCount = "defend_count"
	FieldChatID      = "chat_id"
)

func Module(module string) zap.Field {
	return zap.String(FieldModule, module)
}

func UserID(ID string) zap.Field {
	return zap.String(FieldUserID, ID)
}

func CallerID(ID string) zap.Field {
	return zap.String(FieldCallerID, ID)
}

func Role(role string) zap.Field {
	return zap.String(FieldRole, role)
}

func Assignment(name string) zap.Field {
	return zap.String(FieldAssignment, name)
}

func Amount(amount int) zap.Field {
	return zap.Int(FieldAmount, amount)
}

func DefendCount(count int) zap.Field {
	return zap.Int(FieldDefendCount, count)
}

func ChatID(ID int64) zap.Field {
	return zap.Int64(FieldChatID, ID)
}
