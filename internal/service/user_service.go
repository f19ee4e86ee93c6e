package service

import (
	"errors"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserFilter 用户筛选条件
// swagger:model UserFilter
type UserFilter struct {
	Role    string
	ClassID uint
	Search  string
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

// GetUsers 用户列表，支持分页和筛选
func (s *UserService) GetUsers(page, pageSize int, filter UserFilter) ([]model.User, int, error) {
	var users []model.User
	var total int64

	query := s.UserRepo.DB.Model(&model.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if filter.ClassID != 0 {
		query = query.Where("class_id = ?", filter.ClassID)
	}

	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR student_no LIKE ?", searchTerm, searchTerm, searchTerm)
	}

	query.Count(&total)

	offset := (page - 1) * pageSize
	query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&users)

	return users, int(total), nil
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 校验旧密码后更新
func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("旧密码不正确")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	user.UpdatedAt = time.Now()
	return s.UserRepo.Update(user)
}

// SetDisabled 禁用或启用账号
func (s *UserService) SetDisabled(userID uint, disabled bool) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	user.Disabled = disabled
	user.UpdatedAt = time.Now()
	return s.UserRepo.Update(user)
}

// ResetPassword 重置为临时密码并返回明文，由管理员转交学生
func (s *UserService) ResetPassword(userID uint) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	tempPassword := model.GenerateUUID()[:8]
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	user.Password = string(hashed)
	user.UpdatedAt = time.Now()
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}
	return tempPassword, nil
}

// MarkLogin 登录成功后更新时间戳
func (s *UserService) MarkLogin(userID uint) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return
	}
	now := time.Now()
	user.LastLogin = now
	user.LastSeen = now
	_ = s.UserRepo.Update(user)
}
