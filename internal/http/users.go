package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
)

// UsersController handles the admin account screens. Password hashing and
// field validation live in the auth service; this controller only moves form
// values around.
type UsersController struct {
	users       *users.Repository
	authService *auth.Service
}

// NewUsersController creates a new accounts controller.
func NewUsersController(usersRepo *users.Repository, authService *auth.Service) *UsersController {
	return &UsersController{users: usersRepo, authService: authService}
}

type userForm struct {
	Username string
	Email    string
	Role     string
}

func readUserForm(c *gin.Context) (userForm, string) {
	form := userForm{
		Username: strings.TrimSpace(c.PostForm("username")),
		Email:    strings.TrimSpace(c.PostForm("email")),
		Role:     c.PostForm("role"),
	}
	return form, c.PostForm("password")
}

// ListPage renders all accounts.
func (controller *UsersController) ListPage(c *gin.Context) {
	allUsers, err := controller.users.GetAllUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	c.HTML(http.StatusOK, "users_admin", htmlData(c, gin.H{
		"Title":        "Manage Users",
		"Users":        allUsers,
		"ActingUserID": auth.GetUserID(c),
	}))
}

// NewPage renders the add-user form.
func (controller *UsersController) NewPage(c *gin.Context) {
	c.HTML(http.StatusOK, "user_form", htmlData(c, gin.H{
		"Title":  "Add New User",
		"Action": "/admin/users",
		"Form":   userForm{},
	}))
}

// Create handles the add-user form submission.
func (controller *UsersController) Create(c *gin.Context) {
	form, password := readUserForm(c)

	var fieldErrors []string
	_, err := controller.authService.CreateUser(form.Username, form.Email, password, entities.UserRole(form.Role))
	if err == nil {
		redirectWithSuccess(c, "/admin/users", "User added successfully.")
		return
	}
	fieldErrors = append(fieldErrors, accountErrorMessages(err, form)...)

	c.HTML(http.StatusOK, "user_form", htmlData(c, gin.H{
		"Title":  "Add New User",
		"Action": "/admin/users",
		"Form":   form,
		"Errors": fieldErrors,
	}))
}

// EditPage renders the edit form for one account.
func (controller *UsersController) EditPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := controller.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			redirectWithError(c, "/admin/users", "User not found.")
			return
		}
		respondInternalError(c, err, "load user")
		return
	}

	c.HTML(http.StatusOK, "user_form", htmlData(c, gin.H{
		"Title":  "Edit User",
		"Action": "/admin/users/" + c.Param("id"),
		"Form": userForm{
			Username: user.Username,
			Email:    user.Email,
			Role:     string(user.Role),
		},
		"Editing": true,
	}))
}

// Update handles the edit form submission. Leaving the password blank keeps
// the current one.
func (controller *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	form, password := readUserForm(c)

	_, err := controller.authService.UpdateUser(id, form.Username, form.Email, entities.UserRole(form.Role), password)
	if err == nil {
		redirectWithSuccess(c, "/admin/users", "User updated successfully.")
		return
	}
	if errors.Is(err, auth.ErrUserNotFound) {
		redirectWithError(c, "/admin/users", "User not found.")
		return
	}

	c.HTML(http.StatusOK, "user_form", htmlData(c, gin.H{
		"Title":   "Edit User",
		"Action":  "/admin/users/" + c.Param("id"),
		"Form":    form,
		"Editing": true,
		"Errors":  accountErrorMessages(err, form),
	}))
}

// Delete removes an account. Admins cannot remove themselves through this
// screen.
func (controller *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.users.DeleteUser(id, auth.GetUserID(c))
	switch {
	case err == nil:
		redirectWithSuccess(c, "/admin/users", "User deleted successfully.")
	case errors.Is(err, users.ErrSelfDelete):
		redirectWithError(c, "/admin/users", "You cannot delete your own account.")
	case errors.Is(err, database.ErrReferentialConflict):
		redirectWithError(c, "/admin/users", "Cannot delete user: they have borrowing history.")
	case errors.Is(err, database.ErrNotFound):
		redirectWithError(c, "/admin/users", "User not found.")
	default:
		respondInternalError(c, err, "delete user")
	}
}

// accountErrorMessages maps auth service errors onto the form error list.
func accountErrorMessages(err error, form userForm) []string {
	switch {
	case errors.Is(err, auth.ErrUsernameRequired):
		return []string{"Username is required."}
	case errors.Is(err, auth.ErrUsernameInvalid):
		return []string{"Username must be 3-64 characters, alphanumeric with underscore/hyphen only."}
	case errors.Is(err, auth.ErrEmailRequired):
		return []string{"Email is required."}
	case errors.Is(err, auth.ErrEmailInvalid):
		return []string{"Email format is invalid."}
	case errors.Is(err, auth.ErrPasswordRequired):
		return []string{"Password is required."}
	case errors.Is(err, auth.ErrPasswordTooShort):
		return []string{"Password must be at least 6 characters long."}
	case errors.Is(err, auth.ErrPasswordTooLong):
		return []string{"Password exceeds the maximum length of 72 characters."}
	case errors.Is(err, auth.ErrInvalidRole):
		return []string{"Invalid role selected."}
	case errors.Is(err, auth.ErrUserExists), errors.Is(err, database.ErrDuplicate):
		return []string{"The username '" + form.Username + "' or email '" + form.Email + "' is already in use."}
	}
	return []string{"Could not save the user. Please try again."}
}
