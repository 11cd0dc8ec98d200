package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/boltayevjahongir/local-chat/internal/auth"
	"github.com/boltayevjahongir/local-chat/internal/config"
	"github.com/boltayevjahongir/local-chat/internal/db"
	clog "github.com/boltayevjahongir/local-chat/internal/log"
	"github.com/boltayevjahongir/local-chat/internal/models"
)

// userctl 是局域网部署的管理工具：建用户、建群、拉人进群、签发接入 token。
// 聊天服务本身不暴露任何注册或登录接口。
func main() {
	cfg := config.Load()
	clog.Init(cfg.Env)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	switch os.Args[1] {
	case "create-user":
		createUser(gdb, os.Args[2:])
	case "create-group":
		createGroup(gdb, os.Args[2:])
	case "add-member":
		addMember(gdb, os.Args[2:])
	case "mint-token":
		mintToken(gdb, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: userctl <command> [flags]

commands:
  create-user  -username <name> -password <pw> [-display <name>] [-color <#hex>]
  create-group -name <name> [-description <text>]
  add-member   -group <uuid> -username <name>
  mint-token   -username <name> [-ttl <duration>]`)
}

func createUser(gdb *gorm.DB, args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "initial password")
	display := fs.String("display", "", "display name, defaults to username")
	color := fs.String("color", "#3B82F6", "avatar color")
	_ = fs.Parse(args)
	if *username == "" || *password == "" {
		fs.Usage()
		os.Exit(2)
	}
	if *display == "" {
		*display = *username
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}
	user := models.User{Username: *username, PasswordHash: hash, DisplayName: *display, AvatarColor: *color}
	if err := gdb.Create(&user).Error; err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("create user")
	}
	fmt.Println(user.ID)
}

func createGroup(gdb *gorm.DB, args []string) {
	fs := flag.NewFlagSet("create-group", flag.ExitOnError)
	name := fs.String("name", "", "group name")
	description := fs.String("description", "", "group description")
	_ = fs.Parse(args)
	if *name == "" {
		fs.Usage()
		os.Exit(2)
	}
	group := models.Group{Name: *name, Description: *description}
	if err := gdb.Create(&group).Error; err != nil {
		log.Fatal().Err(err).Str("name", *name).Msg("create group")
	}
	fmt.Println(group.ID)
}

func addMember(gdb *gorm.DB, args []string) {
	fs := flag.NewFlagSet("add-member", flag.ExitOnError)
	group := fs.String("group", "", "group uuid")
	username := fs.String("username", "", "user to add")
	_ = fs.Parse(args)
	groupID, err := uuid.Parse(*group)
	if err != nil || *username == "" {
		fs.Usage()
		os.Exit(2)
	}
	var user models.User
	if err := gdb.First(&user, "username = ?", *username).Error; err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("lookup user")
	}
	var g models.Group
	if err := gdb.First(&g, "id = ?", groupID).Error; err != nil {
		log.Fatal().Err(err).Str("group", *group).Msg("lookup group")
	}
	member := models.GroupMember{GroupID: groupID, UserID: user.ID}
	if err := gdb.Create(&member).Error; err != nil {
		log.Fatal().Err(err).Msg("add member")
	}
	fmt.Println(member.ID)
}

func mintToken(gdb *gorm.DB, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("mint-token", flag.ExitOnError)
	username := fs.String("username", "", "user to mint a token for")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = fs.Parse(args)
	if *username == "" {
		fs.Usage()
		os.Exit(2)
	}
	var user models.User
	if err := gdb.First(&user, "username = ?", *username).Error; err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("lookup user")
	}
	token, err := auth.GenerateAccessToken(user.ID, cfg.JWTSecret, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("mint token")
	}
	fmt.Println(token)
}
