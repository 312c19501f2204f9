package engine

// Account identifies who owns a session. Only User sessions touch durable
// user progress and profile state.
type Account interface {
	account()
}

// Guest is an anonymous typist whose progress is never persisted.
type Guest struct{}

// User is a registered typist.
type User struct {
	ID int64
}

func (Guest) account() {}
func (User) account()  {}

// AccountFor maps an optional user id to an account; ids <= 0 are guests.
func AccountFor(userID int64) Account {
	if userID > 0 {
		return User{ID: userID}
	}
	return Guest{}
}
