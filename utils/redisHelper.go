package utils

import (
	"reflect"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
)

const listCacheLifespan = time.Hour

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

func listKey[T any](scope string) string {
	if scope == "" {
		return GetTypeName[T]() + "List"
	}
	return GetTypeName[T]() + "List:" + scope
}

// store a list under TypeList[:scope]; a no-op without redis
func StoreRedisList[T any](obj []*T, scope string) error {
	if config.GetRedisDB() == nil {
		return nil
	}
	return config.SetRedisObject(listKey[T](scope), &obj, listCacheLifespan)
}

// get a list from redis
// returns nil if it does not exist
func RetrieveRedisList[T any](scope string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(listKey[T](scope), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList[:scope]
func RemoveRedisList[T any](scope string) error {
	return config.RemoveRedisKey(listKey[T](scope))
}
