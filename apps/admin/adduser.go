package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/user"
)

type addUserOptions struct {
	name      string
	username  string
	email     string
	password  string
	isAdmin   bool
	isTeacher bool
	isStudent bool
	grade     int
	subjects  []string
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(opts addUserOptions) error {
	ctx := context.Background()
	uname := core.CleanString(opts.username, true /* lower */)
	email := core.CleanString(opts.email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	created := false
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		created = true
		usr = user.User{
			ID:        uuid.New().String(),
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}

	usr.Name = core.CleanString(opts.name)
	if opts.isAdmin {
		usr.Roles = user.AllRoles
	} else {
		var roles []string
		if opts.isTeacher {
			roles = append(roles, user.RoleTeacher)
		}
		if opts.isStudent {
			roles = append(roles, user.RoleStudent)
		}
		if len(roles) > 0 {
			usr.Roles = roles
		}
	}
	usr.Grade = opts.grade
	if len(opts.subjects) > 0 {
		usr.Subjects = opts.subjects
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(opts.password); err != nil {
		return err
	}

	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
